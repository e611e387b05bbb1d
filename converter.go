package nacc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Disposition is the final outcome of one record.
type Disposition string

const (
	DispositionUnmatched Disposition = "unmatched" // routing filter, silent
	DispositionEmitted   Disposition = "emitted"
	DispositionSkipped   Disposition = "skipped" // validation warnings
	DispositionFailed    Disposition = "failed"  // structural error
)

// Result describes what happened to one record.
type Result struct {
	PTID        string
	Disposition Disposition
	Stage       Stage // stage that decided a skip or failure
	Forms       int
	Notices     []string
	Warnings    []string
	Advisories  []string
	Err         error
}

// ConverterOpts configures a Converter.
type ConverterOpts struct {
	Catalog     *Catalog
	Protocol    string    // protocol name, e.g. "uds3-ivp"
	RuleSet     string    // optional override of the protocol's rule set
	Output      io.Writer // fixed-width packets
	Diagnostics io.Writer // [START]/[SKIP] stream
	Logger      Logger
	Chains      *ChainManager
}

// Converter drives the per-record pipeline for one protocol: route, build,
// normalize, validate, then emit or skip.
type Converter struct {
	spec    *ProtocolSpec
	rules   *RuleSet
	catalog *Catalog
	builder *Builder

	out  io.Writer
	diag io.Writer
	log  Logger

	summary *Summary
}

// NewConverter resolves the protocol and rule set. Any error here is a
// configuration error and no record should be processed.
func NewConverter(opts ConverterOpts) (*Converter, error) {
	if opts.Catalog == nil {
		return nil, errors.New("converter: nil catalog")
	}
	spec, err := opts.Catalog.Protocol(opts.Protocol)
	if err != nil {
		return nil, err
	}

	ruleSet := spec.RuleSet
	if opts.RuleSet != "" {
		ruleSet = opts.RuleSet
	}
	rules, err := opts.Catalog.RuleSet(ruleSet)
	if err != nil {
		return nil, err
	}
	if ruleSet != spec.RuleSet {
		if err := rules.Prepare(spec); err != nil {
			return nil, fmt.Errorf("%s with rule set %s: %w", spec.Name, ruleSet, err)
		}
	}

	out, diag, log := opts.Output, opts.Diagnostics, opts.Logger
	if out == nil {
		out = io.Discard
	}
	if diag == nil {
		diag = io.Discard
	}
	if log == nil {
		log = NopLogger()
	}

	return &Converter{
		spec:    spec,
		rules:   rules,
		catalog: opts.Catalog,
		builder: NewBuilder(spec, opts.Chains),
		out:     out,
		diag:    diag,
		log:     log,
		summary: NewSummary(spec.Name, rules.Name),
	}, nil
}

// Protocol returns the active protocol.
func (c *Converter) Protocol() *ProtocolSpec {
	return c.spec
}

// Summary returns the running totals.
func (c *Converter) Summary() *Summary {
	return c.summary
}

// Convert processes every record of src in order. A bad record never
// stops the run; only a read error or cancellation does.
func (c *Converter) Convert(ctx context.Context, src RecordSource) (*Summary, error) {
	c.log.Info("conversion started",
		"run_id", c.summary.RunID, "protocol", c.spec.Name, "rule_set", c.rules.Name)

	for {
		if err := ctx.Err(); err != nil {
			return c.summary, err
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.summary, fmt.Errorf("read record %d: %w", c.summary.Records+1, err)
		}

		res := c.Process(rec)
		if res.Disposition == DispositionFailed {
			c.log.Debug("record failed", "ptid", res.PTID, "stage", res.Stage, "err", res.Err)
		}
	}

	c.log.Info("conversion finished",
		"run_id", c.summary.RunID,
		"records", c.summary.Records,
		"emitted", c.summary.Emitted,
		"skipped", c.summary.Skipped,
		"failed", c.summary.Failed,
		"chains", c.builder.chains.Len(),
		"rule_programs", c.rules.Programs(),
	)
	return c.summary, nil
}

// Process runs one record through the pipeline and writes its forms to
// the output when it passes validation.
func (c *Converter) Process(rec Record) Result {
	res := c.process(rec)
	c.summary.Add(res)
	return res
}

func (c *Converter) process(rec Record) Result {
	ptid := rec.PTID()
	res := Result{PTID: ptid}

	if ok, notice := c.spec.Route.Match(rec); !ok {
		if notice != "" {
			c.diagnose(notice)
		}
		res.Disposition = DispositionUnmatched
		res.Stage = StageRoute
		res.Err = &RecordError{PTID: ptid, Stage: StageRoute, Err: ErrRoutingMismatch}
		return res
	}

	c.diagnose(fmt.Sprintf("%s ptid : %s", MarkerStart, ptid))

	packet, notices, err := c.builder.Build(rec)
	res.Notices = notices
	for _, n := range notices {
		c.diagnose(n)
	}
	if err != nil {
		return c.fail(res, StageBuild, err)
	}

	Normalize(packet, c.spec.Normalize, c.catalog)

	warnings, err := CheckBlanks(packet, c.rules)
	if err != nil {
		return c.fail(res, StageValidate, err)
	}
	warnings = append(warnings, CheckCharacters(packet)...)
	if len(warnings) > 0 {
		res.Warnings = warnings
		res.Disposition = DispositionSkipped
		res.Stage = StageValidate
		c.diagnose(fmt.Sprintf("%s Error for ptid : %s", MarkerSkip, ptid))
		c.diagnose(strings.ReplaceAll(strings.Join(warnings, "\n"), `\`, ""))
		return res
	}

	if c.spec.BaseProtocol() {
		res.Advisories = CheckSingleSelect(packet, c.catalog.Exclusive)
		for _, a := range res.Advisories {
			c.diagnose(fmt.Sprintf("%s ptid %s: %s", MarkerWarning, ptid, a))
		}
	}

	data, err := MarshalPacket(packet)
	if err != nil {
		return c.fail(res, StageEmit, err)
	}
	if _, err := c.out.Write(data); err != nil {
		return c.fail(res, StageEmit, err)
	}

	res.Disposition = DispositionEmitted
	res.Forms = packet.Len()
	return res
}

func (c *Converter) fail(res Result, stage Stage, err error) Result {
	res.Disposition = DispositionFailed
	res.Stage = stage
	res.Err = &RecordError{PTID: res.PTID, Stage: stage, Err: err}
	c.diagnose(fmt.Sprintf("%s Error for ptid : %s", MarkerSkip, res.PTID))
	c.diagnose(res.Err.Error())
	return res
}

func (c *Converter) diagnose(line string) {
	var buf bytes.Buffer
	buf.WriteString(line)
	buf.WriteByte('\n')
	if _, err := c.diag.Write(buf.Bytes()); err != nil {
		c.log.Warn("diagnostics write failed", "err", err)
	}
}

// Match applies the routing filter. A record matches when its event name
// contains the route's event and its completion flag is set. notice is
// non-empty when none of the completion columns exist. A nil route
// matches every record.
func (r *Route) Match(rec Record) (ok bool, notice string) {
	if r == nil {
		return true, ""
	}

	if len(r.bindings) > 0 {
		if r.Any {
			found, complete := false, false
			for _, b := range r.bindings {
				v, present := rec[b.Column]
				if !present {
					continue
				}
				found = true
				if !slices.Contains(incompleteValues, strings.TrimSpace(v)) {
					complete = true
					break
				}
			}
			if !found {
				return false, fmt.Sprintf("Could not find a REDCap field for %s form.", r.Label)
			}
			if !complete {
				return false, ""
			}
		} else {
			v, _, found := rec.Lookup(r.bindings...)
			if !found {
				return false, fmt.Sprintf("Could not find a REDCap field for %s form.", r.Label)
			}
			if slices.Contains(incompleteValues, strings.TrimSpace(v)) {
				return false, ""
			}
		}
	}

	if r.Event == "" {
		return true, ""
	}
	return strings.Contains(rec[ColumnEventName], r.Event), ""
}
