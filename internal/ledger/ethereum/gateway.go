// Package ethereum implements ledger.Gateway against the deployed credential
// registry contract over JSON-RPC. A single operator key signs every write;
// callers other than the operator are refused before anything is sent.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"dhruva/internal/ledger"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/circuit"
)

// Backend is what the gateway needs from a node connection. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Config struct {
	ContractAddress string
	ChainID         int64
	// OperatorKey is a hex private key. Without it the gateway is read-only.
	OperatorKey string
	Timeout     time.Duration
	RPS         float64
}

type Gateway struct {
	contract *bind.BoundContract
	backend  Backend
	signer   *bind.TransactOpts
	operator string
	timeout  time.Duration
	limiter  *limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	closer   func()
}

type Option func(*Gateway)

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *Gateway) { g.breaker = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// Dial connects to rpcURL and binds the registry contract.
func Dial(ctx context.Context, rpcURL string, cfg Config, opts ...Option) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger rpc: %w", err)
	}
	g, err := New(client, cfg, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	g.closer = client.Close
	return g, nil
}

func New(backend Backend, cfg Config, opts ...Option) (*Gateway, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	parsed, err := registry()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	g := &Gateway{
		contract: bind.NewBoundContract(common.HexToAddress(cfg.ContractAddress), parsed, backend, backend, backend),
		backend:  backend,
		timeout:  cfg.Timeout,
		limiter:  newLimiter(cfg.RPS, 1),
		logger:   slog.Default(),
	}
	if cfg.OperatorKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.OperatorKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse operator key: %w", err)
		}
		signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
		if err != nil {
			return nil, fmt.Errorf("build transactor: %w", err)
		}
		g.signer = signer
		g.operator = domain.CanonicalAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.breaker == nil {
		g.breaker = circuit.New("ledger")
	}
	return g, nil
}

// Operator is the canonical address writes are signed with, empty when
// read-only.
func (g *Gateway) Operator() string { return g.operator }

func (g *Gateway) Close() {
	if g.closer != nil {
		g.closer()
	}
}

func (g *Gateway) IsAuthorizedIssuer(ctx context.Context, address string) (bool, error) {
	const op = "is_authorized_issuer"
	if !common.IsHexAddress(address) {
		return false, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	out, err := g.call(ctx, op, methodAuthorizedIssuers, common.HexToAddress(address))
	if err != nil {
		return false, err
	}
	authorized, ok := outputAt[bool](out, 0)
	if !ok {
		return false, badResponse(op)
	}
	return authorized, nil
}

func (g *Gateway) Owner(ctx context.Context) (string, error) {
	const op = "owner"
	out, err := g.call(ctx, op, methodOwner)
	if err != nil {
		return "", err
	}
	owner, ok := outputAt[common.Address](out, 0)
	if !ok {
		return "", badResponse(op)
	}
	return domain.CanonicalAddress(owner.Hex()), nil
}

// AuthorizeIssuer succeeds when the operator is the contract owner or is
// itself an authorized issuer.
func (g *Gateway) AuthorizeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error) {
	const op = "authorize_issuer"
	if !common.IsHexAddress(address) {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	if err := g.ensureSigner(op, caller); err != nil {
		return nil, err
	}
	owner, err := g.Owner(ctx)
	if err != nil {
		return nil, err
	}
	if owner != g.operator {
		authorized, err := g.IsAuthorizedIssuer(ctx, g.operator)
		if err != nil {
			return nil, err
		}
		if !authorized {
			return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged, nil)
		}
	}
	return g.transact(ctx, op, methodAuthorizeIssuer, common.HexToAddress(address))
}

func (g *Gateway) RevokeIssuer(ctx context.Context, address, caller string) (*ledger.Receipt, error) {
	const op = "revoke_issuer"
	if !common.IsHexAddress(address) {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	if err := g.ensureSigner(op, caller); err != nil {
		return nil, err
	}
	owner, err := g.Owner(ctx)
	if err != nil {
		return nil, err
	}
	if owner != g.operator {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged, nil)
	}
	return g.transact(ctx, op, methodRevokeIssuer, common.HexToAddress(address))
}

func (g *Gateway) IssueCredential(ctx context.Context, params ledger.IssueParams, caller string) (*ledger.Receipt, error) {
	const op = "issue_credential"
	hash, err := ledger.NormalizeHash(params.Hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	if !common.IsHexAddress(params.Holder) {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidAddress, nil)
	}
	if params.ExpiryDate < 0 {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidExpiry, nil)
	}
	if err := g.ensureSigner(op, caller); err != nil {
		return nil, err
	}
	authorized, err := g.IsAuthorizedIssuer(ctx, g.operator)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonNotIssuer, nil)
	}
	return g.transact(ctx, op, methodIssueCredential,
		common.HexToAddress(params.Holder),
		[32]byte(common.HexToHash(hash)),
		big.NewInt(params.ExpiryDate),
		params.Name,
		params.Description,
	)
}

func (g *Gateway) VerifyCredential(ctx context.Context, hash string) (*ledger.CredentialStatus, error) {
	const op = "verify_credential"
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	out, err := g.call(ctx, op, methodVerifyCredential, [32]byte(common.HexToHash(normalized)))
	if err != nil {
		return nil, err
	}
	status, ok := decodeStatus(normalized, out)
	if !ok {
		return nil, badResponse(op)
	}
	return status, nil
}

func (g *Gateway) RevokeCredential(ctx context.Context, hash, caller string) (*ledger.Receipt, error) {
	const op = "revoke_credential"
	normalized, err := ledger.NormalizeHash(hash)
	if err != nil {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonInvalidHash, err)
	}
	if err := g.ensureSigner(op, caller); err != nil {
		return nil, err
	}
	return g.transact(ctx, op, methodRevokeCredential, [32]byte(common.HexToHash(normalized)))
}

func (g *Gateway) ensureSigner(op, caller string) error {
	if g.signer == nil {
		return ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonNoSigner, nil)
	}
	if !domain.SameAddress(caller, g.operator) {
		return ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotSigner,
			fmt.Errorf("caller %s is not the operator", domain.CanonicalAddress(caller)))
	}
	return nil
}

func (g *Gateway) call(ctx context.Context, op, method string, args ...any) ([]any, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	if err := g.admit(ctx, op); err != nil {
		return nil, err
	}
	var out []any
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, g.fail(op, err)
	}
	g.breaker.RecordSuccess()
	return out, nil
}

func (g *Gateway) transact(ctx context.Context, op, method string, args ...any) (*ledger.Receipt, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()
	if err := g.admit(ctx, op); err != nil {
		return nil, err
	}
	opts := *g.signer
	opts.Context = ctx
	tx, err := g.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, g.fail(op, err)
	}
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		return nil, g.fail(op, err)
	}
	g.breaker.RecordSuccess()
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ledger.NewError(op, ledger.KindReverted, ledger.ReasonReverted,
			fmt.Errorf("transaction %s reverted", tx.Hash().Hex()))
	}
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	g.logger.InfoContext(ctx, "ledger write mined",
		"op", op,
		"tx_hash", tx.Hash().Hex(),
		"block", block,
	)
	return &ledger.Receipt{TxHash: tx.Hash().Hex(), BlockNumber: block}, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) admit(ctx context.Context, op string) error {
	if !g.breaker.Allow() {
		return ledger.NewError(op, ledger.KindUnavailable, ledger.ReasonCircuitOpen, nil)
	}
	if err := g.limiter.wait(ctx); err != nil {
		return ledger.NewError(op, ledger.KindUnavailable, ledger.ReasonTimeout, err)
	}
	return nil
}

// fail classifies err and feeds transport failures to the breaker. Reverts
// prove the node is reachable and count as successes.
func (g *Gateway) fail(op string, err error) error {
	le := classify(op, err)
	if le.Kind != ledger.KindUnavailable {
		g.breaker.RecordSuccess()
		return le
	}
	if g.breaker.RecordFailure() {
		breakerOpened.Inc()
		g.logger.Warn("ledger circuit opened", "op", op, "error", err)
	}
	return le
}

// privilegeMarkers are revert strings the registry uses for access control.
var privilegeMarkers = []string{
	"not authorized",
	"unauthorized",
	"not the owner",
	"only owner",
	"ownable",
	"not an authorized issuer",
}

func classify(op string, err error) *ledger.Error {
	var le *ledger.Error
	if errors.As(err, &le) {
		return le
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "revert") {
		for _, marker := range privilegeMarkers {
			if strings.Contains(lower, marker) {
				return ledger.NewError(op, ledger.KindUnauthorized, ledger.ReasonCallerNotPrivileged, err)
			}
		}
		if strings.Contains(lower, "already") {
			return ledger.NewError(op, ledger.KindReverted, ledger.ReasonAlreadyIssued, err)
		}
		return ledger.NewError(op, ledger.KindReverted, ledger.ReasonReverted, err)
	}
	return ledger.NewError(op, ledger.KindUnavailable, classifyRPCError(err), err)
}

func badResponse(op string) error {
	return ledger.NewError(op, ledger.KindUnavailable, "bad_response", errors.New("unexpected contract output"))
}

func outputAt[T any](out []any, i int) (T, bool) {
	var zero T
	if i >= len(out) {
		return zero, false
	}
	v, ok := out[i].(T)
	return v, ok
}

func decodeStatus(hash string, out []any) (*ledger.CredentialStatus, bool) {
	if len(out) != 9 {
		return nil, false
	}
	exists, ok1 := outputAt[bool](out, 0)
	revoked, ok2 := outputAt[bool](out, 1)
	expired, ok3 := outputAt[bool](out, 2)
	issuer, ok4 := outputAt[common.Address](out, 3)
	holder, ok5 := outputAt[common.Address](out, 4)
	issuedAt, ok6 := outputAt[*big.Int](out, 5)
	expiry, ok7 := outputAt[*big.Int](out, 6)
	name, ok8 := outputAt[string](out, 7)
	description, ok9 := outputAt[string](out, 8)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		return nil, false
	}
	status := &ledger.CredentialStatus{Hash: hash, Exists: exists}
	if !exists {
		return status, true
	}
	status.Revoked = revoked
	status.Expired = expired
	status.Issuer = domain.CanonicalAddress(issuer.Hex())
	status.Holder = domain.CanonicalAddress(holder.Hex())
	status.IssuedAt = issuedAt.Int64()
	status.ExpiryDate = expiry.Int64()
	status.Name = name
	status.Description = description
	return status, true
}

var _ ledger.Gateway = (*Gateway)(nil)
