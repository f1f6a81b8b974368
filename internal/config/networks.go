package config

// Network names
const (
	NetworkMain    = "main"
	NetworkTest    = "test"
	NetworkRegtest = "regtest"
)

// NetworkParams describes one chain the seeds are generated for
type NetworkParams struct {
	Name          string
	DefaultPort   int
	SeedArrayName string // name of the fixed seed array in chainparamsseeds.h
}

// Networks maps a network name to its parameters
var Networks = map[string]NetworkParams{
	NetworkMain: {
		Name:          NetworkMain,
		DefaultPort:   1993,
		SeedArrayName: "pnSeed6_main",
	},
	NetworkTest: {
		Name:          NetworkTest,
		DefaultPort:   11993,
		SeedArrayName: "pnSeed6_test",
	},
	// regtest never ships fixed seeds, the array name only exists for completeness
	NetworkRegtest: {
		Name:          NetworkRegtest,
		DefaultPort:   19931,
		SeedArrayName: "pnSeed6_regtest",
	},
}
