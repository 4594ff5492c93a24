package jsonrpc

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/holiman/uint256"
	"github.com/meadowhq/mdwd/client"
	"github.com/meadowhq/mdwd/events"
	"github.com/meadowhq/mdwd/interfaces"
	"github.com/meadowhq/mdwd/logx"
	"github.com/meadowhq/mdwd/monitoring"
	"github.com/meadowhq/mdwd/transaction"
)

// --- Error type used by handlers ---

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func toJRPC2Error(e *rpcError) error {
	if e == nil {
		return nil
	}
	return jrpc2.Errorf(jrpc2.Code(e.Code), "%s", e.Message)
}

// --- Params/Results exposed to the presentation layer ---

type submitTxParams struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount,omitempty"`
	Fee         string `json:"fee"`
	ProjectName string `json:"project_name,omitempty"`
	UserHandle  string `json:"user_handle,omitempty"`
	Memo        string `json:"memo,omitempty"`
	Nonce       uint64 `json:"nonce"`
}

type submitTxResponse struct {
	Ok     bool   `json:"ok"`
	TxHash string `json:"tx_hash"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type transactionData struct {
	TxHash    string `json:"tx_hash"`
	Kind      string `json:"kind"`
	Amount    string `json:"amount,omitempty"`
	Fee       string `json:"fee,omitempty"`
	Status    string `json:"status"`
	Timestamp uint64 `json:"timestamp"`
}

type listTransactionsResponse struct {
	TotalCount uint64            `json:"total_count"`
	Txs        []transactionData `json:"txs"`
}

type txStatusRequest struct {
	TxHash string `json:"tx_hash"`
}

type txStatusResponse struct {
	TxHash string `json:"tx_hash"`
	Found  bool   `json:"found"`
	Status string `json:"status,omitempty"`
}

type refreshResponse struct {
	Changed int `json:"changed"`
}

// --- Server ---

// Server exposes the transaction ledger to the presentation layer over
// JSON-RPC: submit a funding-pool operation, read the tracked list,
// query a single hash, force a refresh round.
type Server struct {
	addr       string
	ledger     *transaction.Ledger
	chain      interfaces.ChainClient
	bus        *events.EventBus
	signer     ed25519.PrivateKey
	sender     string
	corsConfig CORSConfig
	httpSrv    *http.Server
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func NewServer(addr string, ledger *transaction.Ledger, chain interfaces.ChainClient, bus *events.EventBus, signer ed25519.PrivateKey) *Server {
	return &Server{
		addr:   addr,
		ledger: ledger,
		chain:  chain,
		bus:    bus,
		signer: signer,
		sender: client.AddressFromKey(signer),
		corsConfig: CORSConfig{
			AllowedOrigins: []string{},
			AllowedMethods: []string{},
			AllowedHeaders: []string{},
			MaxAge:         0,
		},
	}
}

func (s *Server) Start() {
	methods := s.buildMethodMap()
	jh := jhttp.NewBridge(methods, &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		jh.ServeHTTP(w, r)
	})

	s.httpSrv = &http.Server{Addr: s.addr, Handler: h}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Error("RPC", "RPC server stopped: ", err)
		}
	}()
	logx.Info("RPC", fmt.Sprintf("JSON-RPC server listening on %s", s.addr))
}

// Stop shuts the listener down, draining in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// SetCORSConfig allows configuring CORS settings
func (s *Server) SetCORSConfig(config CORSConfig) {
	s.corsConfig = config
}

// Build jrpc2 method map
func (s *Server) buildMethodMap() handler.Map {
	return handler.Map{
		"ledger.submit": handler.New(func(ctx context.Context, p submitTxParams) (*submitTxResponse, error) {
			res, err := s.rpcSubmitTx(ctx, p)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			if res == nil {
				return nil, nil
			}
			return res.(*submitTxResponse), nil
		}),
		"ledger.list": handler.New(func(ctx context.Context) (*listTransactionsResponse, error) {
			res, err := s.rpcListTransactions()
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			if res == nil {
				return nil, nil
			}
			return res.(*listTransactionsResponse), nil
		}),
		"ledger.status": handler.New(func(ctx context.Context, p txStatusRequest) (*txStatusResponse, error) {
			res, err := s.rpcTxStatus(p)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			if res == nil {
				return nil, nil
			}
			return res.(*txStatusResponse), nil
		}),
		"ledger.refresh": handler.New(func(ctx context.Context) (*refreshResponse, error) {
			res, err := s.rpcRefresh(ctx)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			if res == nil {
				return nil, nil
			}
			return res.(*refreshResponse), nil
		}),
	}
}

// --- Handlers ---

func (s *Server) rpcSubmitTx(ctx context.Context, p submitTxParams) (interface{}, *rpcError) {
	kind, rpcErr := kindFromParams(p)
	if rpcErr != nil {
		return nil, rpcErr
	}
	fee, rpcErr := parseAmount(p.Fee, "fee")
	if rpcErr != nil {
		return nil, rpcErr
	}

	tx := &client.Tx{
		Kind:      kind.KindName(),
		Sender:    s.sender,
		Amount:    kindAmount(kind),
		Fee:       fee,
		Nonce:     p.Nonce,
		Timestamp: uint64(time.Now().Unix()),
		Memo:      p.Memo,
	}
	signed, err := client.SignTx(tx, s.signer)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: err.Error()}
	}

	// Submission failures surface to the caller; the ledger only ever
	// sees transactions the node accepted.
	res, err := s.chain.SubmitTx(ctx, signed)
	if err != nil {
		return &submitTxResponse{Ok: false, Error: err.Error()}, nil
	}

	rec := transaction.Record{
		Hash:      res.TxHash,
		Status:    res.Status,
		Kind:      kind,
		Fee:       fee,
		Timestamp: tx.Timestamp,
	}
	evicted := s.ledger.Add(rec)
	monitoring.IncreaseSubmittedTxCount(kind.KindName())

	if s.bus != nil {
		s.bus.Publish(events.NewTransactionSubmitted(rec.Hash, rec.KindName(), string(rec.Status)))
		for _, ev := range evicted {
			s.bus.Publish(events.NewTransactionEvicted(ev.Hash, string(ev.Status)))
		}
	}

	return &submitTxResponse{Ok: true, TxHash: res.TxHash, Status: string(res.Status)}, nil
}

func (s *Server) rpcListTransactions() (interface{}, *rpcError) {
	snapshot := s.ledger.Snapshot()
	txs := make([]transactionData, 0, len(snapshot))
	for _, rec := range snapshot {
		txs = append(txs, recordData(rec))
	}
	return &listTransactionsResponse{TotalCount: uint64(len(txs)), Txs: txs}, nil
}

func (s *Server) rpcTxStatus(p txStatusRequest) (interface{}, *rpcError) {
	if p.TxHash == "" {
		return nil, &rpcError{Code: -32602, Message: "tx_hash is required"}
	}
	for _, rec := range s.ledger.Snapshot() {
		if rec.Hash == p.TxHash {
			return &txStatusResponse{TxHash: p.TxHash, Found: true, Status: string(rec.Status)}, nil
		}
	}
	return &txStatusResponse{TxHash: p.TxHash, Found: false}, nil
}

func (s *Server) rpcRefresh(ctx context.Context) (interface{}, *rpcError) {
	changes := s.ledger.RefreshAll(ctx)
	if s.bus != nil {
		for _, ch := range changes {
			s.bus.Publish(events.NewTransactionStatusChanged(ch.TxHash, string(ch.From), string(ch.To)))
		}
	}
	return &refreshResponse{Changed: len(changes)}, nil
}

// --- Param helpers ---

func kindFromParams(p submitTxParams) (transaction.Kind, *rpcError) {
	switch p.Kind {
	case "top_up":
		amount, rpcErr := parseAmount(p.Amount, "amount")
		if rpcErr != nil {
			return nil, rpcErr
		}
		return transaction.TopUp{Amount: amount}, nil
	case "collect_funds":
		amount, rpcErr := parseAmount(p.Amount, "amount")
		if rpcErr != nil {
			return nil, rpcErr
		}
		return transaction.CollectFunds{Amount: amount}, nil
	case "update_contribution":
		amount, rpcErr := parseAmount(p.Amount, "amount")
		if rpcErr != nil {
			return nil, rpcErr
		}
		return transaction.UpdateContribution{Amount: amount}, nil
	case "update_beneficiaries":
		return transaction.UpdateBeneficiaries{}, nil
	case "register_project":
		if p.ProjectName == "" {
			return nil, &rpcError{Code: -32602, Message: "project_name is required"}
		}
		return transaction.RegisterProject{Name: p.ProjectName}, nil
	case "register_user":
		if p.UserHandle == "" {
			return nil, &rpcError{Code: -32602, Message: "user_handle is required"}
		}
		return transaction.RegisterUser{Handle: p.UserHandle}, nil
	}
	return nil, &rpcError{Code: -32602, Message: fmt.Sprintf("unknown transaction kind %q", p.Kind)}
}

func parseAmount(value, field string) (*uint256.Int, *rpcError) {
	if value == "" {
		return nil, &rpcError{Code: -32602, Message: fmt.Sprintf("%s is required", field)}
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, &rpcError{Code: -32602, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return amount, nil
}

func recordData(rec transaction.Record) transactionData {
	data := transactionData{
		TxHash:    rec.Hash,
		Kind:      rec.KindName(),
		Status:    string(rec.Status),
		Timestamp: rec.Timestamp,
	}
	if rec.Fee != nil {
		data.Fee = rec.Fee.String()
	}
	if amount := kindAmount(rec.Kind); amount != nil {
		data.Amount = amount.String()
	}
	return data
}

func kindAmount(kind transaction.Kind) *uint256.Int {
	switch k := kind.(type) {
	case transaction.TopUp:
		return k.Amount
	case transaction.CollectFunds:
		return k.Amount
	case transaction.UpdateContribution:
		return k.Amount
	}
	return nil
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	// Set allowed origins
	if len(s.corsConfig.AllowedOrigins) > 0 {
		if s.corsConfig.AllowedOrigins[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			origin := r.Header.Get("Origin")
			for _, allowedOrigin := range s.corsConfig.AllowedOrigins {
				if origin == allowedOrigin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
	}

	// Set allowed methods
	if len(s.corsConfig.AllowedMethods) > 0 {
		methods := strings.Join(s.corsConfig.AllowedMethods, ", ")
		w.Header().Set("Access-Control-Allow-Methods", methods)
	}

	// Set allowed headers
	if len(s.corsConfig.AllowedHeaders) > 0 {
		headers := strings.Join(s.corsConfig.AllowedHeaders, ", ")
		w.Header().Set("Access-Control-Allow-Headers", headers)
	}

	// Set max age
	if s.corsConfig.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.corsConfig.MaxAge))
	}
}
