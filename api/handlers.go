package api

import (
	"net/http"

	"github.com/spinlab/fv1asm/assemble"
	"github.com/spinlab/fv1asm/debugger"
	"github.com/spinlab/fv1asm/parser"
	"github.com/spinlab/fv1asm/sim"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.CreateSession(parser.DefaultOptions())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, SessionCreateResponse{SessionID: session.ID, CreatedAt: session.CreatedAt})
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.sessions.DestroySession(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) session(w http.ResponseWriter, id string) *Session {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil
	}
	return session
}

// handleAssemble assembles source against the session's options (with any
// per-request overrides) and loads the resulting image into the session's
// debugger (spec.md §6: "Assembler result" plus "load").
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req AssembleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := session.Options
	if req.MemBug != nil {
		opts.MemBug = *req.MemBug
	}
	if req.ClampReals != nil {
		opts.ClampReals = *req.ClampReals
	}
	if req.RegCount != nil {
		opts.RegCount = *req.RegCount
	}
	if req.ProgSize != nil {
		opts.ProgSize = *req.ProgSize
	}
	if req.DelaySize != nil {
		opts.DelaySize = *req.DelaySize
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	res := assemble.Assemble(req.Source, opts)
	session.Options = opts

	resp := AssembleResponse{UsedRegisterCount: res.UsedRegisterCount}
	for _, p := range res.Problems {
		resp.Problems = append(resp.Problems, ProblemResponse{Message: p.Message, Fatal: p.Fatal, Line: p.Line})
	}
	for name, info := range res.Labels {
		resp.Labels = append(resp.Labels, LabelResponse{Name: name, Line: info.Line, InstructionIndex: info.InstructionIndex})
	}
	for _, m := range res.Memories {
		resp.Memories = append(resp.Memories, MemResponse{
			Name: m.Name, Size: m.Size, Start: m.Start, Middle: m.Middle, End: m.End, Line: m.Line,
		})
	}

	if len(res.Program) > 0 {
		resp.ProgramWords = len(res.Program)
		resp.Listing = assemble.FormatListing(res.Program)

		symbols := make(map[string]float64, len(res.Symbols))
		for _, sym := range res.Symbols {
			if v, err := parser.ParseNumberLiteral(sym.Value); err == nil {
				symbols[sym.Name] = v
			}
		}
		mems := make(map[string]debugger.MemInfo, len(res.Memories))
		for _, m := range res.Memories {
			mems[m.Name] = debugger.MemInfo{Start: m.Start, Middle: m.Middle, End: m.End}
		}
		meta := debugger.NewMetadata(symbols, mems, opts.MemBug)
		session.Debugger.Load(res.Program, res.AddressToLine, meta)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req StepRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	feed := func(i int) (float64, float64) { return req.InL, req.InR }
	_, _, hit := session.Debugger.RunSamples(feed, 1, req.Pot0, req.Pot1, req.Pot2)

	if hit {
		s.broadcaster.BroadcastExecution(id, "breakpoint_hit", map[string]interface{}{"pc": session.Debugger.Sim.State.PC})
	}

	writeJSON(w, http.StatusOK, StepResponse{State: renderState(session.Debugger.GetState())})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req RunRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.InL) != len(req.InR) {
		writeError(w, http.StatusBadRequest, "inL and inR must have equal length")
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	var outL, outR []float64
	var hit bool
	if req.UntilBreak {
		feed := func(i int) (float64, float64) { return req.InL[i], req.InR[i] }
		outL, outR, hit = session.Debugger.RunSamples(feed, len(req.InL), req.Pot0, req.Pot1, req.Pot2)
	} else {
		outL, outR = session.Debugger.Sim.ProcessBlock(req.InL, req.InR, req.Pot0, req.Pot1, req.Pot2)
	}

	if hit {
		s.broadcaster.BroadcastExecution(id, "breakpoint_hit", map[string]interface{}{"pc": session.Debugger.Sim.State.PC})
	}

	writeJSON(w, http.StatusOK, RunResponse{OutL: outL, OutR: outR, HitBreak: hit, State: renderState(session.Debugger.GetState())})
}

func (s *Server) handleAddBreakpoint(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	bp := session.Debugger.AddBreakpoint(req.InstructionIndex, req.Temporary, req.Condition)
	session.mu.Unlock()

	writeJSON(w, http.StatusCreated, toBreakpointInfo(bp))
}

func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, id string, idx int) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	session.mu.Lock()
	err := session.Debugger.RemoveBreakpoint(idx)
	session.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	session.mu.Lock()
	all := session.Debugger.Breakpoints.All()
	session.mu.Unlock()

	resp := BreakpointsResponse{}
	for _, bp := range all {
		resp.Breakpoints = append(resp.Breakpoints, toBreakpointInfo(bp))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRegister(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req RegisterRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	session.Debugger.SetRegister(req.Index, req.Value)
	session.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSetACC(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req ACCRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	session.Debugger.SetACC(req.Value)
	session.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	session.mu.Lock()
	snap := session.Debugger.GetState()
	session.mu.Unlock()

	writeJSON(w, http.StatusOK, renderState(snap))
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	session := s.session(w, id)
	if session == nil {
		return
	}

	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.mu.Lock()
	label, value, err := session.Debugger.Evaluate(req.Expression)
	session.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusOK, EvaluateResponse{Found: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Label: label, Value: value, Found: true})
}

func toBreakpointInfo(bp *debugger.Breakpoint) BreakpointInfo {
	return BreakpointInfo{
		ID:               bp.ID,
		InstructionIndex: bp.InstructionIndex,
		Enabled:          bp.Enabled,
		Temporary:        bp.Temporary,
		Condition:        bp.Condition,
		HitCount:         bp.HitCount,
	}
}

func renderState(snap debugger.StateSnapshot) StateResponse {
	regs := make([]float64, len(snap.Registers))
	copy(regs, snap.Registers[:])
	return StateResponse{
		ACC:          snap.ACC,
		PACC:         snap.PACC,
		LR:           snap.LR,
		PC:           snap.PC,
		Registers:    regs,
		DelayPointer: snap.DelayPointer,
		RunState:     runStateName(snap.RunState),
		FirstRun:     snap.FirstRun,
	}
}

func runStateName(rs sim.RunState) string {
	switch rs {
	case sim.StateRunning:
		return "running"
	case sim.StateBreakpoint:
		return "breakpoint"
	default:
		return "halted"
	}
}
