package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI fragments for the external contracts, reduced to the functions this
// client actually calls. The full deployments expose more surface (oracle
// callbacks, ownership management), none of which is reachable from here.

const predictionMarketABIJSON = `[
	{"inputs":[{"name":"marketId","type":"bytes32"}],"name":"getMarket","outputs":[{"name":"resolved","type":"bool"},{"name":"outcome1Token","type":"address"},{"name":"outcome2Token","type":"address"},{"name":"outcome1","type":"bytes"},{"name":"outcome2","type":"bytes"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"outcome1","type":"string"},{"name":"outcome2","type":"string"},{"name":"description","type":"string"},{"name":"reward","type":"uint256"},{"name":"requiredBond","type":"uint256"},{"name":"poolFee","type":"uint24"}],"name":"initializeMarket","outputs":[{"name":"marketId","type":"bytes32"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"marketId","type":"bytes32"},{"name":"assertedOutcome","type":"string"}],"name":"assertMarket","outputs":[{"name":"assertionId","type":"bytes32"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"marketId","type":"bytes32"},{"name":"tokensToCreate","type":"uint256"}],"name":"createOutcomeTokens","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"marketId","type":"bytes32"}],"name":"settleOutcomeTokens","outputs":[{"name":"payout","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const ammABIJSON = `[
	{"inputs":[{"name":"marketId","type":"bytes32"}],"name":"getPoolUsingMarketId","outputs":[{"components":[{"name":"marketId","type":"bytes32"},{"name":"pool","type":"address"},{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"},{"name":"poolInitialized","type":"bool"}],"name":"pool","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getAllPools","outputs":[{"components":[{"name":"marketId","type":"bytes32"},{"name":"pool","type":"address"},{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"fee","type":"uint24"},{"name":"poolInitialized","type":"bool"}],"name":"","type":"tuple[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"marketId","type":"bytes32"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"},{"name":"zeroForOne","type":"bool"}],"name":"swap","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const poolABIJSON = `[
	{"inputs":[],"name":"slot0","outputs":[{"name":"sqrtPriceX96","type":"uint160"},{"name":"tick","type":"int24"},{"name":"observationIndex","type":"uint16"},{"name":"observationCardinality","type":"uint16"},{"name":"observationCardinalityNext","type":"uint16"},{"name":"feeProtocol","type":"uint8"},{"name":"unlocked","type":"bool"}],"stateMutability":"view","type":"function"}
]`

const erc20ABIJSON = `[
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var (
	predictionMarketABI = mustParseABI(predictionMarketABIJSON)
	ammABI              = mustParseABI(ammABIJSON)
	poolABI             = mustParseABI(poolABIJSON)
	erc20ABI            = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return &parsed
}
