// Package config loads the swarmctl configuration.
//
// The canonical format is HCL:
//
//	schema_version = "1.0"
//
//	server {
//	  host              = "localhost:8000"
//	  secure            = false
//	  handshake_timeout = "10s"
//	}
//
//	reconnect {
//	  base_delay  = "1s"
//	  max_delay   = "30s"
//	  max_retries = 10
//	}
//
//	gate {
//	  debounce_window = "100ms"
//	}
//
//	parameter "waveAmplitude" {
//	  policy = "debounced"
//	  min    = 0
//	  max    = 50
//	}
//
//	logging {
//	  level = "info"
//	  json  = false
//	  file  = "/tmp/swarmctl.log"
//
//	  syslog {
//	    host = "logs.example.com"
//	    port = 514
//	  }
//	}
//
//	metrics {
//	  listen = ":9464"
//	}
//
//	recordings {
//	  path = "~/.local/share/swarmctl/recordings.db"
//	}
//
// JSON (.json) and YAML (.yaml, .yml) files with the same shape are also
// accepted. Every block is optional; omitted values take the defaults from
// Default.
package config
