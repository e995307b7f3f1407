package featureflag

type Flag string

const (
	FlagDisableSimulation      Flag = "DISABLE_SIMULATION"
	FlagDisableWebsocketStream Flag = "DISABLE_WEBSOCKET_STREAM"
	FlagDisablePointsEndpoint  Flag = "DISABLE_POINTS_ENDPOINT"
)
