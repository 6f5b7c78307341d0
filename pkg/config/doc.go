// Package config loads stubd configuration files.
//
// A configuration names the fixtures to load and the routes to serve. Files
// are YAML (.yaml, .yml) or JSON, checked against an embedded JSON Schema and
// then semantically:
//
//	port: 3000
//	fixtures:
//	  - name: cars
//	    path: fixtures/cars.json
//	routes:
//	  - method: GET
//	    path: /api/v1/cars
//	    behavior: serve-fixture
//	    fixture: cars
//	  - method: GET
//	    path: /api/v1/cars/:id
//	    behavior: mutate-and-serve
//	    fixture: cars
//	    field: email
//	    param: id
//
// Relative fixture paths resolve against the directory of the configuration
// file. ${VAR} and ${VAR:-default} references in the file are expanded from
// the environment before parsing, and STUBD_PORT and STUBD_LOG_LEVEL override
// the parsed values.
//
// Without a file, Default reproduces the stock route set over example1.json
// and example2.json in the working directory.
package config
