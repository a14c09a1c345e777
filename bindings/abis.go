package bindings

// Contract ABIs, trimmed to the methods and events this module consumes.

const governorABIJSON = `[
	{"inputs":[],"name":"avatar","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"optimisticOracle","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"collateral","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"rules","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"bondAmount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"liveness","outputs":[{"name":"","type":"uint64"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"proposalHash","type":"bytes32"}],"name":"proposalHashes","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"components":[{"name":"to","type":"address"},{"name":"operation","type":"uint8"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"name":"transactions","type":"tuple[]"},{"name":"explanation","type":"bytes"}],"name":"proposeTransactions","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"components":[{"name":"to","type":"address"},{"name":"operation","type":"uint8"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],"name":"transactions","type":"tuple[]"}],"name":"executeProposal","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"proposer","type":"address"},{"indexed":false,"name":"proposalTime","type":"uint256"},{"indexed":false,"name":"proposalHash","type":"bytes32"},{"indexed":false,"name":"explanation","type":"bytes"}],"name":"TransactionsProposed","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"proposalHash","type":"bytes32"},{"indexed":false,"name":"proposalTime","type":"uint256"}],"name":"ProposalExecuted","type":"event"}
]`

const oracleABIJSON = `[
	{"inputs":[{"name":"requester","type":"address"},{"name":"identifier","type":"bytes32"},{"name":"timestamp","type":"uint256"},{"name":"ancillaryData","type":"bytes"}],"name":"getRequest","outputs":[{"components":[{"name":"proposer","type":"address"},{"name":"disputer","type":"address"},{"name":"settled","type":"bool"},{"name":"resolvedPrice","type":"int256"},{"name":"expirationTime","type":"uint256"}],"name":"","type":"tuple"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"requester","type":"address"},{"indexed":true,"name":"identifier","type":"bytes32"},{"indexed":false,"name":"timestamp","type":"uint256"},{"indexed":false,"name":"ancillaryData","type":"bytes"},{"indexed":false,"name":"expirationTimestamp","type":"uint256"}],"name":"ProposePrice","type":"event"}
]`

const erc20ABIJSON = `[
	{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`
