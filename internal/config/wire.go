package config

import "github.com/google/wire"

// ProviderSet is the Wire provider set for the viper-backed Config.
var ProviderSet = wire.NewSet(New)
