// Package config provides configuration loading for the mCW platform.
//
// Package: config
// Title: mCW Configuration Framework
// Description: This package implements configuration loading from TOML and
//              YAML files with format auto-detection, environment variable
//              overrides, default values and dotted-path access to nested
//              values.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation with TOML/YAML support
//
// Features:
// - TOML and YAML parsing with auto-detection by file extension
// - Environment variable overrides with configurable prefix
// - Default values merged for absent keys
// - Dotted-path getters with type coercion (GetString, GetInt, ...)
//
// Usage:
//
//	cfg, err := config.Load("mcw.toml")
//	if err != nil {
//		return err
//	}
//	port := cfg.GetInt("jacquard.port", 8420)
package config
