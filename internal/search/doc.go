// Package search turns a free-text query into a ranked fuzzy search.
//
// Which fields a collection is searched on is data, not code: a Registry
// maps collection names to Profiles, and one pure function renders any
// profile. New collections are added by registering a profile.
//
// Profiles are loaded from YAML or CUE. CUE files are checked against the
// embedded schema.cue before decoding. The default registry ships the
// person, person_role, country and org profiles.
//
// Example profile file:
//
//	profiles:
//	  - name: person
//	    fuzzy:
//	      - {field: firstName, threshold: 2}
//	      - {field: lastName, threshold: 2}
//	    exactInt: personID
//	  - name: person_role
//	    related: {profile: person, view: person_view, field: _from}
package search
