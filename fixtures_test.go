package nacc

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

const demoProtocol = `
name: demo-ivp
packet: I
header_packet: I
version: "3"
cutoff: "2015-03-01"
rule_set: demo
normalize: zerofill
single_select: true
route:
  event: initial
  complete: "ivp_z1_complete,omitempty ivp_z1x_complete,omitempty"
  any: true
checklist:
  source: ivp_z1x_complete
  done: ["1", "2"]
forms:
  - id: Z1X
    role: header
    fields:
      - {name: A2SUB}
  - id: A1
    role: required
    fields:
      - {name: REASON}
      - {name: REFERSC, blanks: ["Blank if Question 2a REASON = 2 (No)"]}
      - {name: PRESTAT, source: "prestat,omitempty fu_prestat,omitempty", default: "1"}
      - {name: MIDDLE, type: Char, length: 20, source: "middlename,omitempty"}
  - id: A2
    role: optional
    flag: a2sub
    fields:
      - {name: INRELTO}
  - id: D1
    role: required
    fields:
      - {name: DEMENTED}
      - {name: AMNDEM, source: "amndem,omitempty"}
      - {name: PCA, source: "pca,omitempty"}
`

const demoModule = `
name: demo-lbd
packet: IL
version: "3.1"
rule_set: demo
form_dates: true
route:
  event: initial
  complete: lbd_b1l_complete
  label: LBD B1L
forms:
  - id: B1L
    role: required
    date: b1l_date
    rater: b1l_rater
    fields:
      - {name: LBSSALIV}
`

func testCatalogFS() fstest.MapFS {
	return fstest.MapFS{
		"catalog/protocols/demo-ivp.yaml": {Data: []byte(demoProtocol)},
		"catalog/protocols/demo-lbd.yaml": {Data: []byte(demoModule)},
		"catalog/rules/blanks_demo.json":  {Data: []byte(`{"name": "demo", "description": "test rules"}`)},
		"catalog/rules/zerofill.json": {Data: []byte(`{"entries": [
			{"trigger": "DEMENTED", "values": ["1"], "fields": ["AMNDEM", "PCA"]}
		]}`)},
		"catalog/rules/reblank.json": {Data: []byte(`{"entries": [
			{"trigger": "DEMENTED", "values": ["1"], "fields": ["AMNDEM", "PCA"]}
		]}`)},
		"catalog/rules/exclusive.json": {Data: []byte(`{"selected": "1", "groups": [
			{"name": "D1 Q4", "message": "For Form D1, Question 4, there is unexpectedly more than one syndrome indicated as \"Present\".", "fields": ["AMNDEM", "PCA"]}
		]}`)},
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := LoadCatalogFS(testCatalogFS(), "catalog")
	require.NoError(t, err)
	return cat
}

func testProtocol(t *testing.T, name string) *ProtocolSpec {
	t.Helper()
	spec, err := testCatalog(t).Protocol(name)
	require.NoError(t, err)
	return spec
}

// validRecord is a complete demo-ivp visit with nothing to report.
func validRecord() Record {
	return Record{
		"ptid":              "110001",
		"adcid":             "43",
		"visitmo":           "6",
		"visitday":          "15",
		"visityr":           "2020",
		"visitnum":          "1",
		"initials":          "ABC",
		"redcap_event_name": "initial_visit_year_arm_1",
		"ivp_z1x_complete":  "2",
		"a2sub":             "0",
		"reason":            "1",
		"refersc":           "3",
		"prestat":           "1",
		"middlename":        "Lee",
		"inrelto":           "1",
		"demented":          "1",
		"amndem":            "1",
		"pca":               "",
	}
}

func withValues(rec Record, kv ...string) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

func without(rec Record, columns ...string) Record {
	out := withValues(rec)
	for _, c := range columns {
		delete(out, c)
	}
	return out
}
