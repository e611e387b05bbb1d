// Package commands defines the redcap2nacc CLI.
//
// Commands
//
//   - redcap2nacc        Convert a REDCap export to NACC packets
//   - extract            Copy the rows of one participant to a new CSV
//   - protocols          List the protocols in the embedded catalog
//
// # Implementation
//
// The root command loads the embedded catalog and the optional TOML run
// config before any subcommand runs. Flags given on the command line
// override the config file.
package commands
