package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/namereg/pkg/codec"
	"github.com/ssargent/namereg/pkg/errs"
	"github.com/ssargent/namereg/pkg/instruction"
	"github.com/ssargent/namereg/pkg/ledger"
	"github.com/ssargent/namereg/pkg/registry"
)

// Server holds the API server state
type Server struct {
	ledger  ILedger
	invoker Invoker
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server. Metrics are registered with
// config.Registry, which is created when missing.
func NewServer(l ILedger, invoker Invoker, config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Registry == nil {
		config.Registry = newRegistry()
	}
	return &Server{
		ledger:  l,
		invoker: invoker,
		config:  config,
		metrics: NewMetrics(config.Registry),
		logger:  logger,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleRegister godoc
//
//	@Summary		Register a name
//	@Description	Allocate a slot funded by payer and write a name record into it
//	@Tags			names
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RegisterRequest	true	"Registration"
//	@Success		201		{object}	APIResponse{data=InstructionResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		409		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/names [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErr(w, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	slot := req.Slot
	if slot == nil {
		generated, err := codec.NewIdentity()
		if err != nil {
			sendErr(w, err)
			return
		}
		slot = &generated
	}

	accounts := instruction.Accounts{Payer: req.Payer, Slot: *slot, System: ledger.SystemProgramID}
	result, err := s.execute(r, accounts, instruction.RegisterName{Name: []byte(req.Name)})
	if err != nil {
		sendErr(w, err)
		return
	}

	sendCreated(w, newInstructionResponse(result))
}

// handleResolve godoc
//
//	@Summary		Resolve a slot
//	@Description	Decode the name record stored in a slot
//	@Tags			names
//	@Produce		json
//	@Param			slot	path		string	true	"Slot identity (hex)"
//	@Success		200		{object}	APIResponse{data=InstructionResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/slots/{slot} [get]
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	slot, err := identityParam(r, "slot")
	if err != nil {
		sendErr(w, err)
		return
	}

	result, err := s.execute(r, instruction.Accounts{Slot: slot}, instruction.ResolveName{})
	if err != nil {
		sendErr(w, err)
		return
	}

	sendSuccess(w, newInstructionResponse(result))
}

// handleInvoke godoc
//
//	@Summary		Invoke an instruction
//	@Description	Run raw instruction data against accounts [payer, slot, system]
//	@Tags			instructions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InstructionRequest	true	"Instruction"
//	@Success		200		{object}	APIResponse{data=InstructionResponse}
//	@Failure		400		{object}	APIResponse
//	@Failure		409		{object}	APIResponse
//	@Failure		422		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/instructions [post]
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErr(w, errs.InvalidInput("invalid request body: %v", err))
		return
	}

	keys := make([]codec.Identity, 0, len(req.Accounts))
	for i, account := range req.Accounts {
		id, err := codec.ParseIdentity(account)
		if err != nil {
			sendErr(w, errs.InvalidInput("account %d: %v", i, err))
			return
		}
		keys = append(keys, id)
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		sendErr(w, errs.InvalidInput("instruction data is not base64: %v", err))
		return
	}

	label := "unknown"
	if ins, err := instruction.Decode(data); err == nil {
		label = ins.Opcode().String()
	}

	start := time.Now()
	result, err := s.invoker.Process(r.Context(), keys, data)
	s.metrics.RecordInstruction(label, err, time.Since(start))
	if err != nil {
		sendErr(w, err)
		return
	}

	sendSuccess(w, newInstructionResponse(result))
}

// handleAirdrop godoc
//
//	@Summary		Airdrop lamports
//	@Description	Credit lamports to an account, creating it when missing
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Account identity (hex)"
//	@Param			body	body		AirdropRequest	true	"Amount"
//	@Success		200		{object}	APIResponse{data=AirdropResponse}
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/accounts/{id}/airdrop [post]
func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	id, err := identityParam(r, "id")
	if err != nil {
		sendErr(w, err)
		return
	}

	var req AirdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErr(w, errs.InvalidInput("invalid request body: %v", err))
		return
	}
	if req.Lamports == 0 {
		sendErr(w, errs.InvalidInput("lamports must be positive"))
		return
	}

	balance, err := s.ledger.Airdrop(r.Context(), id, req.Lamports)
	if errors.Is(err, ledger.ErrBalanceOverflow) {
		err = errs.Wrap(errs.CodeInvalidInput, err, "airdrop")
	}
	if err != nil {
		sendErr(w, err)
		return
	}

	s.metrics.RecordAirdrop(req.Lamports)
	sendSuccess(w, AirdropResponse{Account: id, Balance: balance})
}

// handleGetAccount godoc
//
//	@Summary		Get an account
//	@Description	Return balance, owner and raw data of an account
//	@Tags			accounts
//	@Produce		json
//	@Param			id	path		string	true	"Account identity (hex)"
//	@Success		200	{object}	APIResponse{data=AccountResponse}
//	@Failure		404	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/accounts/{id} [get]
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := identityParam(r, "id")
	if err != nil {
		sendErr(w, err)
		return
	}

	account, err := s.ledger.Account(r.Context(), id)
	if err != nil {
		sendErr(w, err)
		return
	}

	sendSuccess(w, AccountResponse{
		ID:       id,
		Lamports: account.Lamports,
		Owner:    account.Owner,
		Space:    account.Space(),
		Data:     account.Data,
	})
}

// handleRent godoc
//
//	@Summary		Rent-exempt minimum
//	@Description	Lamports needed to keep an account of the given size rent exempt
//	@Tags			accounts
//	@Produce		json
//	@Param			space	query		int	false	"Data size in bytes (default 256)"
//	@Success		200		{object}	APIResponse{data=RentResponse}
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/rent [get]
func (s *Server) handleRent(w http.ResponseWriter, r *http.Request) {
	space := uint64(registry.SlotSize)
	if raw := r.URL.Query().Get("space"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			sendErr(w, errs.InvalidInput("invalid space %q", raw))
			return
		}
		space = parsed
	}
	if space > ledger.MaxPermittedDataLength {
		sendErr(w, errs.InvalidInput("space %d exceeds %d", space, ledger.MaxPermittedDataLength))
		return
	}

	sendSuccess(w, RentResponse{Space: space, Lamports: s.ledger.MinimumBalance(space)})
}

func (s *Server) execute(r *http.Request, accounts instruction.Accounts, ins instruction.Instruction) (*instruction.Result, error) {
	start := time.Now()
	result, err := s.invoker.Execute(r.Context(), accounts, ins)
	s.metrics.RecordInstruction(ins.Opcode().String(), err, time.Since(start))
	return result, err
}

func identityParam(r *http.Request, name string) (codec.Identity, error) {
	id, err := codec.ParseIdentity(chi.URLParam(r, name))
	if err != nil {
		return codec.Identity{}, errs.InvalidInput("%s: %v", name, err)
	}
	return id, nil
}
