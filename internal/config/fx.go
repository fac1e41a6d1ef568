package config

import "go.uber.org/fx"

// Module wires application and quality-rule configuration.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		LoadQualityRules,
	),
)
