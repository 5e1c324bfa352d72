// Package config provides configuration parsing for ley.
//
// The configuration is stored in ley.json or ley.yaml. Every field is
// optional; missing fields take their defaults.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "slice_ms": 5,
//	    "sync": false,
//	    "debug_hooks": true
//	  },
//	  "inspect": {
//	    "addr": "localhost:7070"
//	  },
//	  "metrics": {
//	    "namespace": "ley"
//	  },
//	  "log": {
//	    "level": "debug",
//	    "format": "text"
//	  }
//	}
//
// The same structure in YAML:
//
//	scheduler:
//	  slice_ms: 5
//	  debug_hooks: true
//	log:
//	  level: debug
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Slice:", cfg.Slice())
package config
