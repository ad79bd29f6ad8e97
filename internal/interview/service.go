package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"career-copilot/internal/ai"
	"career-copilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	// ErrProOnly 表示免费档用户尝试使用模拟面试。
	ErrProOnly = errors.New("interview requires pro plan")
	// ErrCompleted 表示该面试已经提交过回答。
	ErrCompleted = errors.New("interview already completed")
	// ErrAnswerCount 表示回答数量与问题数量不一致。
	ErrAnswerCount = errors.New("answer count mismatch")
	// ErrParse 表示评分回复不是合法 JSON。不重试、不静默降级，
	// 由路由层转为 502 提示用户重新提交。
	ErrParse = errors.New("parse interview feedback")
)

// Store 定义模拟面试所需的数据访问。
type Store interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	CreateInterviewSession(ctx context.Context, session *model.InterviewSession) error
	GetInterviewSession(ctx context.Context, userID, id string) (*model.InterviewSession, error)
	SaveInterviewSession(ctx context.Context, session *model.InterviewSession) error
	RecordAIUsage(ctx context.Context, usage model.AIUsage) error
}

// Service 实现模拟面试：开场生成固定题目，提交回答后由 LLM
// 逐题评分并给出总分。Pro 专属功能。
type Service struct {
	provider ai.Provider
	store    Store
	now      func() time.Time
}

// NewService 创建模拟面试服务。
func NewService(provider ai.Provider, store Store) *Service {
	return &Service{provider: provider, store: store, now: time.Now}
}

// 开场题目模板，%s 为目标职位。每场固定 5 题。
var questionTemplates = []string{
	"Conte sobre um desafio técnico recente que você enfrentou como %s e como resolveu.",
	"Por que você quer trabalhar como %s e o que te diferencia de outros candidatos?",
	"Descreva uma situação em que você discordou de uma decisão do time. Como lidou?",
	"Qual foi o projeto de maior impacto que você entregou? Qual foi seu papel nele?",
	"Onde você quer estar em dois anos e o que está fazendo para chegar lá?",
}

// BuildQuestions 根据目标职位生成一场面试的题目。纯函数，便于单测。
func BuildQuestions(cargo string) []string {
	questions := make([]string, 0, len(questionTemplates))
	for _, tpl := range questionTemplates {
		if strings.Contains(tpl, "%s") {
			questions = append(questions, fmt.Sprintf(tpl, cargo))
		} else {
			questions = append(questions, tpl)
		}
	}
	return questions
}

// Start 开启一场模拟面试并持久化题目。免费档返回 ErrProOnly。
func (s *Service) Start(ctx context.Context, userID, cargo, area string) (*model.InterviewSession, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.Plan != model.PlanPro {
		return nil, ErrProOnly
	}

	questions := BuildQuestions(cargo)
	raw, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	session := &model.InterviewSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Cargo:     cargo,
		Area:      area,
		Questions: raw,
		Status:    "in_progress",
	}
	if err := s.store.CreateInterviewSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create interview session: %w", err)
	}
	return session, nil
}

// 允许 LLM 把 JSON 包在 markdown 代码块里，取第一个对象字面量。
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type scoredQuestion struct {
	Question string `json:"question"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
}

type llmFeedback struct {
	OverallScore int              `json:"overallScore"`
	Summary      string           `json:"summary"`
	Questions    []scoredQuestion `json:"questions"`
}

func buildScoringPrompt(cargo string, questions, answers []string) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "Pergunta %d: %s\nResposta %d: %s\n\n", i+1, q, i+1, answers[i])
	}
	return fmt.Sprintf(`Você é um entrevistador experiente avaliando um candidato a %s.

Avalie cada resposta abaixo quanto a clareza, profundidade e relevância para a vaga.

%s
FORMATO DE RESPOSTA (JSON):
{
  "overallScore": <nota geral de 0 a 100>,
  "summary": "Avaliação geral em 2-3 frases, falando diretamente com o candidato ('você')",
  "questions": [
    {"question": "<pergunta>", "score": <0-100>, "comment": "<feedback específico da resposta>"}
  ]
}

IMPORTANTE:
- Português brasileiro
- Sem emojis
- Honesto e específico, sem elogios vazios`, cargo, b.String())
}

// Complete 提交回答并评分。评分结果写回会话，用量进台账。
// 会话不存在时透传 sql.ErrNoRows。
func (s *Service) Complete(ctx context.Context, userID, sessionID string, answers []string) (*model.InterviewSession, error) {
	session, err := s.store.GetInterviewSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CompletedAt != nil {
		return nil, ErrCompleted
	}

	var questions []string
	if err := json.Unmarshal(session.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCount, len(answers), len(questions))
	}

	resp, err := s.provider.Complete(ctx, []ai.Message{
		{Role: "user", Content: buildScoringPrompt(session.Cargo, questions, answers)},
	}, ai.Options{Temperature: 0.3, MaxTokens: 1200})
	if err != nil {
		return nil, fmt.Errorf("interview scoring: %w", err)
	}

	raw := jsonObjectPattern.FindString(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrParse)
	}
	var parsed llmFeedback
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if parsed.OverallScore < 0 || parsed.OverallScore > 100 || parsed.Summary == "" {
		return nil, fmt.Errorf("%w: score out of range or summary missing", ErrParse)
	}

	items := make([]any, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		items = append(items, map[string]any{
			"question": q.Question,
			"score":    q.Score,
			"comment":  q.Comment,
		})
	}

	completed := s.now()
	session.OverallScore = parsed.OverallScore
	session.Feedback = datatypes.JSONMap{"summary": parsed.Summary, "questions": items}
	session.Status = "completed"
	session.CompletedAt = &completed
	if err := s.store.SaveInterviewSession(ctx, session); err != nil {
		return nil, err
	}

	if err := s.store.RecordAIUsage(ctx, model.AIUsage{
		UserID:           userID,
		Feature:          "interview",
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}); err != nil {
		// 台账失败不影响结果
		log.Printf("record interview usage: %v", err)
	}
	return session, nil
}
