// Package pep implements the Python packaging standards the resolver depends on.
//
// # Overview
//
// Each file covers one standard:
//
//   - name.go: project name normalization (PEP 503)
//   - version.go: versions and specifier sets (PEP 440)
//   - requirement.go: dependency specifiers (PEP 508)
//   - marker.go: environment marker evaluation (PEP 508)
//   - wheel.go: wheel filenames and compatibility tags (PEP 427, PEP 425)
//   - metadata.go: core metadata files (METADATA, PEP 566)
//
// Version comparison is delegated to github.com/aquasecurity/go-pep440-version.
// Everything else is parsed here because no Go library covers it.
//
// # Usage
//
//	req, err := pep.ParseRequirement(`requests[socks]>=2.28; python_version >= "3.8"`)
//	if err != nil {
//	    return err
//	}
//	ok, err := req.Marker.Evaluate(pep.MarkerEnv{"python_version": "3.11"})
//
// All types in this package are immutable after construction and safe for
// concurrent use.
package pep
