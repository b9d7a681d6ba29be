// Package config loads pkgtree settings with viper.
//
// Precedence, lowest first: built-in defaults, a config file (any format
// viper reads), then PKGTREE_* environment variables. Nested keys use an
// underscore in the environment, so indexer.workers is
// PKGTREE_INDEXER_WORKERS.
package config
