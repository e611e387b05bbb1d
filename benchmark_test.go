package nacc

import (
	"testing"
)

func BenchmarkBuildWithoutChainCache(b *testing.B) {
	cat, err := LoadCatalogFS(testCatalogFS(), "catalog")
	if err != nil {
		b.Fatal(err)
	}
	spec, _ := cat.Protocol("demo-ivp")
	rec := validRecord()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// A fresh manager per record recompiles every chain.
		if _, _, err := NewBuilder(spec, nil).Build(rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildWithChainCache(b *testing.B) {
	cat, err := LoadCatalogFS(testCatalogFS(), "catalog")
	if err != nil {
		b.Fatal(err)
	}
	spec, _ := cat.Protocol("demo-ivp")
	builder := NewBuilder(spec, NewChainManager())
	rec := validRecord()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := builder.Build(rec); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProcessUDS3(b *testing.B) {
	cat, err := LoadCatalog()
	if err != nil {
		b.Fatal(err)
	}
	conv, err := NewConverter(ConverterOpts{Catalog: cat, Protocol: "uds3-ivp"})
	if err != nil {
		b.Fatal(err)
	}
	rec := syntheticRecord(b, conv.Protocol())
	rec["redcap_event_name"] = "initial_visit_arm_1"
	rec["ivp_z1x_complete"] = "2"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conv.Process(rec)
	}
}
