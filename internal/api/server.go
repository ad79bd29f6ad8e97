package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"career-copilot/internal/ai"
	"career-copilot/internal/application"
	"career-copilot/internal/auth"
	"career-copilot/internal/billing"
	"career-copilot/internal/copilot"
	"career-copilot/internal/hero"
	"career-copilot/internal/insight"
	"career-copilot/internal/interview"
	"career-copilot/internal/model"
	"career-copilot/internal/questionnaire"
	"career-copilot/internal/storage"
	"career-copilot/internal/subscription"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

const maxBodySize = 1 << 20

// Server 汇聚各服务并暴露 HTTP 路由。
type Server struct {
	store     *storage.Store
	authSvc   *auth.Service
	issuer    *auth.TokenIssuer
	google    *auth.GoogleOAuth
	quota     *subscription.Service
	copilot   *copilot.Service
	hero      *hero.Builder
	interview *interview.Service
	provider  ai.Provider
	billing   *billing.Client
	webhook   *billing.WebhookHandler
	appURL    string

	now func() time.Time
}

// Config 描述 API 层配置。
type Config struct {
	AppURL         string   `yaml:"app_url" json:"app_url"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// Deps 汇集 Server 的依赖。
type Deps struct {
	Store     *storage.Store
	Auth      *auth.Service
	Issuer    *auth.TokenIssuer
	Google    *auth.GoogleOAuth
	Quota     *subscription.Service
	Copilot   *copilot.Service
	Hero      *hero.Builder
	Interview *interview.Service
	Provider  ai.Provider
	Billing   *billing.Client
	Webhook   *billing.WebhookHandler
}

// NewServer 创建 Server。
func NewServer(cfg Config, deps Deps) *Server {
	return &Server{
		store:     deps.Store,
		authSvc:   deps.Auth,
		issuer:    deps.Issuer,
		google:    deps.Google,
		quota:     deps.Quota,
		copilot:   deps.Copilot,
		hero:      deps.Hero,
		interview: deps.Interview,
		provider:  deps.Provider,
		billing:   deps.Billing,
		webhook:   deps.Webhook,
		appURL:    strings.TrimRight(cfg.AppURL, "/"),
		now:       time.Now,
	}
}

// Handler 构造完整路由。
func (s *Server) Handler(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/magic-link", s.handleMagicLink)
		r.Get("/auth/verify", s.handleVerify)
		if s.google != nil && s.google.Enabled() {
			r.Get("/auth/google", s.handleGoogleLogin)
			r.Get("/auth/google/callback", s.handleGoogleCallback)
		}

		r.Post("/billing/webhook", s.handleWebhook)
		r.Post("/waitlist", s.handleWaitlist)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.issuer, func(w http.ResponseWriter, _ *http.Request, _ error) {
				writeError(w, errAuthentication("Faça login para continuar"))
			}))

			r.Get("/me", s.handleMe)

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", s.handleListApplications)
				r.Post("/", s.handleCreateApplication)
				r.Get("/{id}", s.handleGetApplication)
				r.Put("/{id}", s.handleUpdateApplication)
				r.Delete("/{id}", s.handleDeleteApplication)
				r.Post("/{id}/status", s.handleChangeStatus)
			})

			r.Route("/insights", func(r chi.Router) {
				r.Get("/", s.handleListInsights)
				r.Post("/", s.handleGenerateInsight)
				r.Post("/{id}/view", s.handleMarkInsightViewed)
			})

			r.Route("/interview", func(r chi.Router) {
				r.Post("/", s.handleStartInterview)
				r.Post("/{id}/complete", s.handleCompleteInterview)
			})

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/hero", s.handleHero)
			r.Post("/copilot", s.handleCopilot)

			r.Post("/billing/checkout", s.handleCheckout)
			r.Post("/billing/portal", s.handlePortal)
		})
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		return errValidation("corpo da requisição inválido")
	}
	return nil
}

// --- auth ---

func (s *Server) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.authSvc.SendMagicLink(r.Context(), req.Email); err != nil {
		writeError(w, errValidation("não foi possível enviar o link de acesso"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, errValidation("token obrigatório"))
		return
	}
	session, err := s.authSvc.VerifyMagicLink(r.Context(), token)
	if err != nil {
		writeError(w, errAuthentication("link inválido ou expirado"))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := s.google.BeginLogin(w, r)
	if err != nil {
		writeError(w, errUpstream("não foi possível iniciar o login", err))
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	session, err := s.google.CompleteLogin(w, r)
	if err != nil {
		log.Printf("google login failed: %v", err)
		http.Redirect(w, r, s.appURL+"/login?error=oauth", http.StatusTemporaryRedirect)
		return
	}
	http.Redirect(w, r, s.appURL+"/login#token="+session.Token, http.StatusTemporaryRedirect)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errNotFound("perfil não encontrado"))
			return
		}
		writeError(w, errUpstream("erro ao carregar perfil", err))
		return
	}

	insightQuota, err := s.quota.CanGenerateInsight(r.Context(), userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar quotas", err))
		return
	}
	copilotQuota, _ := s.quota.CanUseCopilot(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"quotas": map[string]any{
			"insight": insightQuota,
			"copilot": copilotQuota,
		},
	})
}

// --- applications ---

type applicationRequest struct {
	Company        string `json:"company"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Notes          string `json:"notes"`
	SalaryRange    string `json:"salary_range"`
	Location       string `json:"location"`
	JobDescription string `json:"job_description"`
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApplications(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, errUpstream("erro ao listar candidaturas", err))
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Company = strings.TrimSpace(req.Company)
	req.Title = strings.TrimSpace(req.Title)
	if req.Company == "" || req.Title == "" {
		writeError(w, errValidation("empresa e cargo são obrigatórios"))
		return
	}

	app := &model.Application{
		ID:             uuid.NewString(),
		UserID:         auth.UserID(r.Context()),
		Company:        req.Company,
		Title:          req.Title,
		Status:         model.StatusApplied,
		URL:            req.URL,
		Notes:          req.Notes,
		SalaryRange:    req.SalaryRange,
		Location:       req.Location,
		JobDescription: req.JobDescription,
	}
	if err := s.store.CreateApplication(r.Context(), app); err != nil {
		writeError(w, errUpstream("erro ao criar candidatura", err))
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.store.GetApplication(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errNotFound("candidatura não encontrada"))
			return
		}
		writeError(w, errUpstream("erro ao carregar candidatura", err))
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Company = strings.TrimSpace(req.Company)
	req.Title = strings.TrimSpace(req.Title)
	if req.Company == "" || req.Title == "" {
		writeError(w, errValidation("empresa e cargo são obrigatórios"))
		return
	}

	app := &model.Application{
		ID:             chi.URLParam(r, "id"),
		UserID:         auth.UserID(r.Context()),
		Company:        req.Company,
		Title:          req.Title,
		URL:            req.URL,
		Notes:          req.Notes,
		SalaryRange:    req.SalaryRange,
		Location:       req.Location,
		JobDescription: req.JobDescription,
	}
	if err := s.store.UpdateApplication(r.Context(), app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errNotFound("candidatura não encontrada"))
			return
		}
		writeError(w, errUpstream("erro ao atualizar candidatura", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteApplication(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, errNotFound("candidatura não encontrada"))
			return
		}
		writeError(w, errUpstream("erro ao excluir candidatura", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.ApplicationStatus `json:"status"`
		Note   string                  `json:"note"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	app, err := s.store.ChangeStatus(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req.Status, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, errNotFound("candidatura não encontrada"))
		case errors.Is(err, application.ErrTransition):
			writeError(w, errValidation("transição de status inválida"))
		default:
			writeError(w, errUpstream("erro ao atualizar status", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// --- insights ---

type insightRequest struct {
	questionnaire.Answer
	Mode string `json:"mode"`
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.store.ListInsights(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, errUpstream("erro ao listar diagnósticos", err))
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleGenerateInsight(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req insightRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Answer.Validate(); err != nil {
		writeError(w, errValidation(err.Error()))
		return
	}

	// 同样的输入直接复用已有结果，不消耗配额。
	hash := insight.InputHash(req.Answer)
	if existing, err := s.store.FindInsightByHash(r.Context(), userID, hash); err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"insight": existing, "reused": true})
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		writeError(w, errUpstream("erro ao consultar diagnósticos", err))
		return
	}

	quota, err := s.quota.CanGenerateInsight(r.Context(), userID)
	if err != nil {
		writeError(w, errUpstream("erro ao verificar quota", err))
		return
	}
	if !quota.Allowed {
		writeError(w, errAccessDenied("Limite de diagnósticos do plano gratuito atingido este mês"))
		return
	}

	record := model.Insight{
		ID:            uuid.NewString(),
		UserID:        userID,
		Cargo:         req.Cargo,
		Senioridade:   req.Senioridade,
		Area:          req.Area,
		Status:        req.Status,
		TempoSituacao: req.TempoSituacao,
		Urgencia:      req.Urgencia,
		Objetivo:      string(req.Objetivo),
		InputHash:     hash,
	}

	switch req.Mode {
	case "", "template":
		d := insight.GenerateTemplate(req.Answer)
		fillDiagnostic(&record, d)
	case "llm":
		d, resp, err := insight.GenerateLLM(r.Context(), s.provider, req.Answer)
		if err != nil {
			if errors.Is(err, insight.ErrParse) {
				writeError(w, errParse("o modelo retornou uma resposta inválida", err))
				return
			}
			writeError(w, errUpstream("erro ao gerar diagnóstico", err))
			return
		}
		fillDiagnostic(&record, d)
		_ = s.store.RecordAIUsage(r.Context(), model.AIUsage{
			UserID:           userID,
			Feature:          "insight",
			Model:            resp.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		})
	case "legacy":
		legacy := insight.GenerateLegacy(req.Answer)
		record.Kind = model.InsightLegacy
		record.Recommendation = legacy.Recommendation
		record.Why = mustJSON(legacy.Why)
		record.Risks = mustJSON(legacy.Risks)
		record.NextSteps = mustJSON(legacy.NextSteps)
		record.Confidence = string(insight.Confide(req.Answer))
	default:
		writeError(w, errValidation("modo de geração desconhecido"))
		return
	}

	if err := s.store.CreateInsight(r.Context(), &record); err != nil {
		writeError(w, errUpstream("erro ao salvar diagnóstico", err))
		return
	}
	if err := s.quota.RecordInsight(r.Context(), userID); err != nil {
		log.Printf("record insight quota: %v", err)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"insight": record, "reused": false})
}

func fillDiagnostic(record *model.Insight, d insight.Diagnostic) {
	record.Kind = model.InsightDiagnostic
	record.Type = string(d.Type)
	record.TypeLabel = d.TypeLabel
	record.Diagnosis = d.Diagnosis
	record.Pattern = d.Pattern
	record.Risk = d.Risk
	record.NextStep = d.NextStep
	record.Confidence = string(d.Confidence)
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return data
}

func (s *Server) handleMarkInsightViewed(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkInsightViewed(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, errUpstream("erro ao marcar diagnóstico", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "viewed"})
}

// --- dashboard / hero ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	apps, err := s.store.ListApplications(r.Context(), userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar candidaturas", err))
		return
	}
	metrics := application.ComputeMetrics(apps)

	benchmark, err := s.store.ComputeBenchmark(r.Context(), userID)
	if err != nil {
		log.Printf("compute benchmark: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":   metrics,
		"benchmark": benchmark,
	})
}

func (s *Server) handleHero(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	ctx := r.Context()

	apps, err := s.store.ListApplications(ctx, userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar candidaturas", err))
		return
	}
	pending, err := s.store.HasPendingInsight(ctx, userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar diagnósticos", err))
		return
	}
	insights, err := s.store.ListInsights(ctx, userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar diagnósticos", err))
		return
	}
	lastInterview, err := s.store.LatestInterviewSession(ctx, userID)
	if err != nil {
		log.Printf("latest interview session: %v", err)
	}

	snap := hero.Snapshot{
		Applications:   apps,
		PendingInsight: pending,
		HasInsights:    len(insights) > 0,
		LastInterview:  lastInterview,
	}
	heroCtx := hero.Detect(snap, s.now())
	message := s.hero.Build(ctx, userID, heroCtx)

	writeJSON(w, http.StatusOK, map[string]any{
		"context": heroCtx,
		"message": message,
	})
}

// --- interview ---

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cargo string `json:"cargo"`
		Area  string `json:"area"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Cargo = strings.TrimSpace(req.Cargo)
	if req.Cargo == "" {
		writeError(w, errValidation("cargo é obrigatório"))
		return
	}

	session, err := s.interview.Start(r.Context(), auth.UserID(r.Context()), req.Cargo, req.Area)
	if err != nil {
		if errors.Is(err, interview.ErrProOnly) {
			writeError(w, errAccessDenied("Simulador de entrevistas disponível apenas no plano Pro"))
			return
		}
		writeError(w, errUpstream("erro ao iniciar entrevista", err))
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []string `json:"answers"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := s.interview.Complete(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, errNotFound("sessão de entrevista não encontrada"))
		case errors.Is(err, interview.ErrCompleted):
			writeError(w, errValidation("esta entrevista já foi concluída"))
		case errors.Is(err, interview.ErrAnswerCount):
			writeError(w, errValidation("responda todas as perguntas antes de enviar"))
		case errors.Is(err, interview.ErrParse):
			writeError(w, errParse("o modelo retornou uma avaliação inválida", err))
		default:
			writeError(w, errUpstream("erro ao avaliar entrevista", err))
		}
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// --- copilot ---

func (s *Server) handleCopilot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.copilot.Ask(r.Context(), auth.UserID(r.Context()), req.Message)
	if err != nil {
		if errors.Is(err, copilot.ErrQuotaExceeded) {
			writeError(w, errAccessDenied("Limite diário de perguntas do plano gratuito atingido"))
			return
		}
		writeError(w, errUpstream("erro ao processar pergunta", err))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// --- billing ---

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		writeError(w, errUpstream("erro ao carregar perfil", err))
		return
	}

	// 白名单邮箱直接升级，不走支付。
	if s.billing.IsWhitelisted(profile.Email) {
		profile.Plan = model.PlanPro
		profile.UpgradeSource = "whitelist"
		profile.SubscriptionStatus = "active"
		if err := s.store.UpsertProfile(ctx, profile); err != nil {
			writeError(w, errUpstream("erro ao atualizar perfil", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"upgraded": true})
		return
	}

	if profile.StripeCustomerID == "" {
		customer, err := s.billing.CreateCustomer(ctx, profile.Email, userID)
		if err != nil {
			writeError(w, errUpstream("erro ao criar cliente de pagamento", err))
			return
		}
		profile.StripeCustomerID = customer.ID
		if err := s.store.UpsertProfile(ctx, profile); err != nil {
			writeError(w, errUpstream("erro ao salvar perfil", err))
			return
		}
	}

	session, err := s.billing.CreateCheckoutSession(ctx, profile.StripeCustomerID, userID)
	if err != nil {
		writeError(w, errUpstream("erro ao criar sessão de pagamento", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := s.store.GetProfile(ctx, auth.UserID(ctx))
	if err != nil {
		writeError(w, errUpstream("erro ao carregar perfil", err))
		return
	}
	if profile.StripeCustomerID == "" {
		writeError(w, errValidation("nenhuma assinatura encontrada para este usuário"))
		return
	}

	session, err := s.billing.CreatePortalSession(ctx, profile.StripeCustomerID)
	if err != nil {
		writeError(w, errUpstream("erro ao abrir portal de pagamento", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": session.URL})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, errValidation("corpo da requisição inválido"))
		return
	}
	defer r.Body.Close()

	if err := s.webhook.VerifySignature(payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, errSignature("assinatura do webhook inválida"))
		return
	}

	// 签名通过后一律应答 200，避免网关重投；事件问题只记日志。
	var event billing.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("billing: undecodable webhook payload: %v", err)
	} else {
		s.webhook.HandleEvent(r.Context(), event)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// --- waitlist ---

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		Feature string `json:"feature"`
		Source  string `json:"source"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, errValidation("email inválido"))
		return
	}
	if strings.TrimSpace(req.Feature) == "" {
		writeError(w, errValidation("feature obrigatória"))
		return
	}

	entry := &model.WaitlistEntry{Email: email, Feature: req.Feature, Source: req.Source}
	if err := s.store.AddWaitlistEntry(r.Context(), entry); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already_registered", "message": "Você já está na lista!"})
			return
		}
		writeError(w, errUpstream("erro ao registrar na lista", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}
