package ledger

// escrowABI covers the subset of the escrow contract this engine reads:
// the order store, the range/constant getters, and the five change events.
const escrowABI = `[
  {
    "type": "function",
    "name": "orders",
    "stateMutability": "view",
    "inputs": [{"name": "id", "type": "uint256"}],
    "outputs": [
      {"name": "maker", "type": "address"},
      {"name": "taker", "type": "address"},
      {"name": "sellToken", "type": "address"},
      {"name": "buyToken", "type": "address"},
      {"name": "sellAmount", "type": "uint256"},
      {"name": "buyAmount", "type": "uint256"},
      {"name": "createdAt", "type": "uint256"},
      {"name": "status", "type": "uint8"},
      {"name": "retryCount", "type": "uint256"},
      {"name": "creationFee", "type": "uint256"}
    ]
  },
  {
    "type": "function",
    "name": "nextOrderId",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "orderExpiryTime",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "function",
    "name": "gracePeriod",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "event",
    "name": "OrderCreated",
    "inputs": [
      {"name": "id", "type": "uint256", "indexed": false},
      {"name": "maker", "type": "address", "indexed": false},
      {"name": "taker", "type": "address", "indexed": false},
      {"name": "sellToken", "type": "address", "indexed": false},
      {"name": "buyToken", "type": "address", "indexed": false},
      {"name": "sellAmount", "type": "uint256", "indexed": false},
      {"name": "buyAmount", "type": "uint256", "indexed": false},
      {"name": "createdAt", "type": "uint256", "indexed": false},
      {"name": "creationFee", "type": "uint256", "indexed": false}
    ]
  },
  {
    "type": "event",
    "name": "OrderFilled",
    "inputs": [
      {"name": "id", "type": "uint256", "indexed": false},
      {"name": "taker", "type": "address", "indexed": false}
    ]
  },
  {
    "type": "event",
    "name": "OrderCanceled",
    "inputs": [{"name": "id", "type": "uint256", "indexed": false}]
  },
  {
    "type": "event",
    "name": "OrderCleanedUp",
    "inputs": [{"name": "id", "type": "uint256", "indexed": false}]
  },
  {
    "type": "event",
    "name": "RetryOrder",
    "inputs": [
      {"name": "oldId", "type": "uint256", "indexed": false},
      {"name": "newId", "type": "uint256", "indexed": false},
      {"name": "retryCount", "type": "uint256", "indexed": false}
    ]
  }
]`
