// Package config loads and validates the Lumina Core configuration.
//
// Configuration is resolved in three layers, later layers winning:
// built-in defaults, the YAML file, then LUMINA_* environment variables.
// Validate runs last, so a config that loads is a config the daemon can
// start with.
//
// Secrets (broker passwords, cache passwords, delegate API keys, TSDB
// tokens) belong in the environment, never in the file. The file itself
// should be kept at 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.ID)
package config
