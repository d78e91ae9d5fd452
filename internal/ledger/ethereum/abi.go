package ethereum

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// registryABI is the subset of the credential registry contract the
// gateway calls.
const registryABI = `[
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"authorizedIssuers","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"authorizeIssuer","stateMutability":"nonpayable",
   "inputs":[{"name":"issuer","type":"address"}],"outputs":[]},
  {"type":"function","name":"revokeIssuer","stateMutability":"nonpayable",
   "inputs":[{"name":"issuer","type":"address"}],"outputs":[]},
  {"type":"function","name":"issueCredential","stateMutability":"nonpayable",
   "inputs":[
     {"name":"holder","type":"address"},
     {"name":"credentialHash","type":"bytes32"},
     {"name":"expiryDate","type":"uint256"},
     {"name":"name","type":"string"},
     {"name":"experience","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"revokeCredential","stateMutability":"nonpayable",
   "inputs":[{"name":"credentialHash","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"verifyCredential","stateMutability":"view",
   "inputs":[{"name":"credentialHash","type":"bytes32"}],
   "outputs":[
     {"name":"exists","type":"bool"},
     {"name":"revoked","type":"bool"},
     {"name":"expired","type":"bool"},
     {"name":"issuer","type":"address"},
     {"name":"holder","type":"address"},
     {"name":"issuedAt","type":"uint256"},
     {"name":"expiryDate","type":"uint256"},
     {"name":"name","type":"string"},
     {"name":"experience","type":"string"}]},
  {"type":"event","name":"IssuerAuthorized","anonymous":false,
   "inputs":[{"name":"issuer","type":"address","indexed":true}]},
  {"type":"event","name":"CredentialIssued","anonymous":false,
   "inputs":[
     {"name":"credentialHash","type":"bytes32","indexed":true},
     {"name":"issuer","type":"address","indexed":true},
     {"name":"holder","type":"address","indexed":true}]},
  {"type":"event","name":"CredentialRevoked","anonymous":false,
   "inputs":[{"name":"credentialHash","type":"bytes32","indexed":true}]}
]`

const (
	methodOwner             = "owner"
	methodAuthorizedIssuers = "authorizedIssuers"
	methodAuthorizeIssuer   = "authorizeIssuer"
	methodRevokeIssuer      = "revokeIssuer"
	methodIssueCredential   = "issueCredential"
	methodRevokeCredential  = "revokeCredential"
	methodVerifyCredential  = "verifyCredential"
)

var (
	parsedOnce sync.Once
	parsed     abi.ABI
	parseErr   error
)

func registry() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsed, parseErr = abi.JSON(strings.NewReader(registryABI))
	})
	return parsed, parseErr
}
