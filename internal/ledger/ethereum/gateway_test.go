package ethereum

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"

	"dhruva/internal/ledger"
	"dhruva/pkg/platform/circuit"
)

const (
	contractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	// Well-known development key; never funded outside local chains.
	operatorKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

// fakeBackend answers eth_call from canned outputs keyed by method. Any
// other backend method panics through the nil embedded interface.
type fakeBackend struct {
	Backend
	outputs map[string][]any
	callErr error
	calls   int
}

func (f *fakeBackend) CallContract(_ context.Context, msg goethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	parsed, err := registry()
	if err != nil {
		return nil, err
	}
	for name, values := range f.outputs {
		method := parsed.Methods[name]
		if bytes.Equal(msg.Data[:4], method.ID) {
			return method.Outputs.Pack(values...)
		}
	}
	return nil, errors.New("unexpected call")
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

type GatewaySuite struct {
	suite.Suite
	ctx      context.Context
	backend  *fakeBackend
	gateway  *Gateway
	operator string
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = &fakeBackend{outputs: map[string][]any{}}
	gw, err := New(s.backend, Config{ContractAddress: contractAddress, ChainID: 31337, OperatorKey: operatorKey},
		WithBreaker(circuit.New("ledger-test", circuit.WithFailureThreshold(2))))
	s.Require().NoError(err)
	s.gateway = gw
	s.operator = gw.Operator()
}

func (s *GatewaySuite) TestNew() {
	s.Run("derives operator from key", func() {
		key, err := crypto.HexToECDSA(operatorKey[2:])
		s.Require().NoError(err)
		s.Equal(crypto.PubkeyToAddress(key.PublicKey).Hex(), common.HexToAddress(s.operator).Hex())
		s.Equal(s.operator, s.gateway.Operator())
	})

	s.Run("rejects bad contract address", func() {
		_, err := New(s.backend, Config{ContractAddress: "nope"})
		s.Error(err)
	})

	s.Run("rejects bad key", func() {
		_, err := New(s.backend, Config{ContractAddress: contractAddress, OperatorKey: "0x1234"})
		s.Error(err)
	})

	s.Run("read-only without key", func() {
		gw, err := New(s.backend, Config{ContractAddress: contractAddress})
		s.Require().NoError(err)
		_, err = gw.AuthorizeIssuer(s.ctx, contractAddress, "0xabc")
		s.ErrorIs(err, ledger.ErrUnauthorized)
		s.Equal(ledger.ReasonNoSigner, ledger.ReasonOf(err))
	})
}

func (s *GatewaySuite) TestReads() {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	s.backend.outputs[methodOwner] = []any{owner}
	s.backend.outputs[methodAuthorizedIssuers] = []any{true}

	got, err := s.gateway.Owner(s.ctx)
	s.Require().NoError(err)
	s.Equal("0x00000000000000000000000000000000000000aa", got)

	ok, err := s.gateway.IsAuthorizedIssuer(s.ctx, contractAddress)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.gateway.IsAuthorizedIssuer(s.ctx, "0xshort")
	s.Equal(ledger.ReasonInvalidAddress, ledger.ReasonOf(err))
}

func (s *GatewaySuite) TestVerifyCredential() {
	hash := ledger.CredentialHash("0xaaa", "0xbbb", "0x123")
	issuer := common.HexToAddress("0x00000000000000000000000000000000000000BB")
	holder := common.HexToAddress("0x00000000000000000000000000000000000000CC")
	s.backend.outputs[methodVerifyCredential] = []any{
		true, false, false, issuer, holder, big.NewInt(1700000000), big.NewInt(0), "Degree", "BSc",
	}

	status, err := s.gateway.VerifyCredential(s.ctx, hash)
	s.Require().NoError(err)
	s.True(status.Valid())
	s.Equal(hash, status.Hash)
	s.Equal("0x00000000000000000000000000000000000000bb", status.Issuer)
	s.Equal("0x00000000000000000000000000000000000000cc", status.Holder)
	s.Equal(int64(1700000000), status.IssuedAt)
	s.Equal("Degree", status.Name)
	s.Equal("BSc", status.Description)

	_, err = s.gateway.VerifyCredential(s.ctx, "0xcafe")
	s.Equal(ledger.ReasonInvalidHash, ledger.ReasonOf(err))
}

func (s *GatewaySuite) TestWritesRefuseForeignCaller() {
	_, err := s.gateway.AuthorizeIssuer(s.ctx, contractAddress, "0x00000000000000000000000000000000000000dd")
	s.ErrorIs(err, ledger.ErrUnauthorized)
	s.Equal(ledger.ReasonCallerNotSigner, ledger.ReasonOf(err))

	_, err = s.gateway.RevokeCredential(s.ctx, ledger.CredentialHash("a", "b", "c"), "0xdd")
	s.Equal(ledger.ReasonCallerNotSigner, ledger.ReasonOf(err))
	s.Zero(s.backend.calls, "nothing reaches the node")
}

func (s *GatewaySuite) TestAuthorizeRequiresPrivilegedOperator() {
	s.backend.outputs[methodOwner] = []any{common.HexToAddress("0x00000000000000000000000000000000000000AA")}
	s.backend.outputs[methodAuthorizedIssuers] = []any{false}

	_, err := s.gateway.AuthorizeIssuer(s.ctx, contractAddress, s.operator)
	s.ErrorIs(err, ledger.ErrUnauthorized)
	s.Equal(ledger.ReasonCallerNotPrivileged, ledger.ReasonOf(err))
}

func (s *GatewaySuite) TestIssueRequiresAuthorizedOperator() {
	s.backend.outputs[methodAuthorizedIssuers] = []any{false}
	params := ledger.IssueParams{
		Holder: "0x00000000000000000000000000000000000000CC",
		Hash:   ledger.CredentialHash("a", "b", "c"),
	}
	_, err := s.gateway.IssueCredential(s.ctx, params, s.operator)
	s.Equal(ledger.ReasonNotIssuer, ledger.ReasonOf(err))
}

func (s *GatewaySuite) TestBreakerOpensOnTransportFailures() {
	s.backend.callErr = errors.New("dial tcp: connection refused")

	for i := 0; i < 2; i++ {
		_, err := s.gateway.Owner(s.ctx)
		s.ErrorIs(err, ledger.ErrUnavailable)
		s.Equal("network_error", ledger.ReasonOf(err))
	}

	calls := s.backend.calls
	_, err := s.gateway.Owner(s.ctx)
	s.Equal(ledger.ReasonCircuitOpen, ledger.ReasonOf(err))
	s.Equal(calls, s.backend.calls, "open breaker short-circuits")
}

func (s *GatewaySuite) TestRevertDoesNotTripBreaker() {
	s.backend.callErr = errors.New("execution reverted: credential already exists")
	for i := 0; i < 3; i++ {
		_, err := s.gateway.Owner(s.ctx)
		s.ErrorIs(err, ledger.ErrReverted)
	}
	s.Equal(circuit.StateClosed, s.gateway.breaker.State())
}

func TestClassify(t *testing.T) {
	cases := map[string]struct {
		err    error
		kind   ledger.Kind
		reason string
	}{
		"owner revert":   {errors.New("execution reverted: Ownable: caller is not the owner"), ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged},
		"issuer revert":  {errors.New("execution reverted: Not authorized issuer"), ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged},
		"duplicate":      {errors.New("execution reverted: Credential already issued"), ledger.KindReverted, ledger.ReasonAlreadyIssued},
		"plain revert":   {errors.New("execution reverted"), ledger.KindReverted, ledger.ReasonReverted},
		"deadline":       {context.DeadlineExceeded, ledger.KindUnavailable, "timeout"},
		"rate limited":   {errors.New("429 Too Many Requests"), ledger.KindUnavailable, "rate_limited"},
		"server":         {errors.New("502 Bad Gateway"), ledger.KindUnavailable, "server_error"},
		"already ledger": {ledger.NewError("x", ledger.KindReverted, "custom", nil), ledger.KindReverted, "custom"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := classify("op", tc.err)
			if got.Kind != tc.kind || got.Reason != tc.reason {
				t.Fatalf("classify(%v) = %s/%s, want %s/%s", tc.err, got.Kind, got.Reason, tc.kind, tc.reason)
			}
		})
	}
}

func TestDecodeStatusRejectsShortOutput(t *testing.T) {
	if _, ok := decodeStatus("0x", []any{true}); ok {
		t.Fatal("expected short output to be rejected")
	}
	status, ok := decodeStatus("0xab", []any{
		false, false, false, common.Address{}, common.Address{}, big.NewInt(0), big.NewInt(0), "", "",
	})
	if !ok || status.Exists || status.Issuer != "" {
		t.Fatalf("unexpected status %+v", status)
	}
}
