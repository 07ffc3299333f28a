// Package harness runs conformance scenarios against the report pipeline.
//
// A scenario pins every input of one report (the lot, its structures, the
// soil sample, sewer coverage and environmental screens) and states the
// verdicts the pipeline must reach. Running a scenario feeds those inputs to
// a snapshot.Aggregator through fixed sources, so the full path from rule
// catalog to overall status is exercised.
//
// # Scenario Format
//
//	name: dadu-violations
//	description: "What this scenario validates"
//	site:
//	  jurisdiction: king-county-wa
//	  zoning_district: R-6
//	  lot_area_sqft: 6000
//	structures:
//	  - id: house
//	    type: primary_dwelling
//	    footprint_sqft: 1800
//	    height_feet: 30
//	    setback_side: 4.5
//	soil:
//	  suitability: well_suited
//	sewer:
//	  provider: None
//	  available: false
//	expect:
//	  overall_status: fail
//	  validation_status: fail
//	  checks:
//	    - rule_id: kc-setback-side
//	      structure_id: house
//	      status: fail
//	  septic_feasibility: not_feasible
//	  issues: [NO_SEWER_SERVICE, LOT_BELOW_MINIMUM_AREA]
//	  cost: { min: 10000, max: 50000 }
//
// Expectations are optional individually; a scenario must state at least
// one. Check expectations are a subset match, issue and system lists are
// exact and ordered.
//
// # Golden Digests
//
// Digest renders a result as a short line-oriented text that is stable
// across runs. The test command compares digests against golden files next
// to the scenarios; RunWithGolden does the same inside go test via goldie.
package harness
