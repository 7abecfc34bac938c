package nakama

// RPC ids registered with Nakama.
const (
	RpcReset       = "td_reset"
	RpcStartGame   = "td_start_game"
	RpcBattle      = "td_battle"
	RpcEndWave     = "td_end_wave"
	RpcRequestGold = "td_request_gold"
	RpcPlayerState = "td_player_state"
	RpcGameInfo    = "td_game_info"
)

// Storage layout.
const (
	accountCollection = "towerdefense"
	accountKey        = "account"
	historyCollection = "towerdefense_history"
	historyKeyFormat  = "round_%08d"
	historyPageSize   = 100
)

// gRPC status codes used for runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeResourceExhausted  = 8
	codeFailedPrecondition = 9
	codeAborted            = 10
	codeInternal           = 13
	codeUnauthenticated    = 16
)
