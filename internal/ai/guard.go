package ai

import (
	"log"
	"regexp"
	"strings"
)

// ValidationResult 是输入安全校验的结果。
type ValidationResult struct {
	Valid     bool
	Sanitized string
	Blocked   bool
	Reason    string
}

// 常见 prompt injection 模式，静态黑名单。
var injectionPatterns = []*regexp.Regexp{
	// 试图绕过既有指令
	regexp.MustCompile(`(?i)ignore\s*(all\s*)?(previous|above|prior)\s*(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s*(all\s*)?(previous|above|prior)`),
	regexp.MustCompile(`(?i)forget\s*(everything|all|your)\s*(instructions?|rules?|prompts?)`),

	// 试图更换角色/人设
	regexp.MustCompile(`(?i)you\s*are\s*now\s*(a|an|the)`),
	regexp.MustCompile(`(?i)act\s*as\s*(a|an|if)`),
	regexp.MustCompile(`(?i)pretend\s*(to\s*be|you\s*are)`),
	regexp.MustCompile(`(?i)roleplay\s*as`),
	regexp.MustCompile(`(?i)switch\s*(to|into)\s*(a|an)`),

	// 试图套取 system prompt
	regexp.MustCompile(`(?i)what\s*(is|are)\s*your\s*(instructions?|prompts?|rules?|system)`),
	regexp.MustCompile(`(?i)show\s*(me\s*)?(your\s*)?(system\s*)?prompt`),
	regexp.MustCompile(`(?i)reveal\s*(your\s*)?(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)print\s*(your\s*)?(system|initial)\s*(prompt|message)`),

	// 分隔符绕过
	regexp.MustCompile(`(?i)\[\s*system\s*\]`),
	regexp.MustCompile(`(?i)\[\s*INST\s*\]`),
	regexp.MustCompile(`(?i)<\s*\|?\s*system\s*\|?\s*>`),
	regexp.MustCompile(`(?i)###\s*(system|instruction)`),
	regexp.MustCompile("(?i)```\\s*(system|prompt|instruction)"),

	// 试图访问其他用户数据
	regexp.MustCompile(`(?i)other\s*users?\s*(data|info|applications?)`),
	regexp.MustCompile(`(?i)all\s*users?\s*(data|info|metrics?)`),
	regexp.MustCompile(`(?i)dados?\s*(de\s*)?outros?\s*usuarios?`),
	regexp.MustCompile(`(?i)informacoes?\s*(de\s*)?outros?\s*usuarios?`),
}

var manipulationKeywords = []string{
	"jailbreak",
	"dan mode",
	"developer mode",
	"sudo",
	"admin mode",
	"bypass",
	"override",
	"hack",
}

var (
	controlChars   = regexp.MustCompile("[\\x00-\\x08\\x0B\\x0C\\x0E-\\x1F\\x7F-\\x9F]")
	escapeSequence = regexp.MustCompile(`\\{2,}`)
)

// markdown 标记字符，连续重复超过 3 个视为刷屏/分隔符绕过。
const markChars = "#*`_~[]<>{}"

// collapseMarks 把 4 个以上连续相同的标记字符压缩为 3 个。
func collapseMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > 3 && strings.ContainsRune(markChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const maxInputLength = 2000

// ValidateInput 校验并净化用户输入，检出注入尝试时拒绝。
func ValidateInput(input string) ValidationResult {
	if strings.TrimSpace(input) == "" || len(strings.TrimSpace(input)) < 2 {
		return ValidationResult{Blocked: true, Reason: "Mensagem muito curta"}
	}
	if len(input) > maxInputLength {
		return ValidationResult{Blocked: true, Reason: "Mensagem muito longa (máximo 2000 caracteres)"}
	}

	sanitized := sanitizeInput(input)

	if pattern, detected := detectInjection(sanitized); detected {
		log.Printf("[security] prompt injection detected: %s", pattern)
		return ValidationResult{Blocked: true, Reason: "Sua mensagem contém padrões não permitidos"}
	}

	return ValidationResult{Valid: true, Sanitized: sanitized}
}

func detectInjection(input string) (string, bool) {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(input) {
			return pattern.String(), true
		}
	}
	lower := strings.ToLower(input)
	for _, keyword := range manipulationKeywords {
		if strings.Contains(lower, keyword) {
			return "keyword: " + keyword, true
		}
	}
	return "", false
}

func sanitizeInput(input string) string {
	s := controlChars.ReplaceAllString(input, "")
	s = collapseMarks(s)
	s = escapeSequence.ReplaceAllString(s, `\`)
	s = strings.TrimSpace(s)
	if len(s) > maxInputLength {
		s = s[:maxInputLength]
	}
	return s
}

// TopicCheckResult 是话题范围检查的结果。
type TopicCheckResult struct {
	OnTopic           bool
	SuggestedResponse string
}

// 职业话题关键词，命中任意一个即认为在范围内。
var careerKeywords = []string{
	"carreira", "emprego", "vaga", "vagas", "trabalho", "empresa",
	"entrevista", "entrevistas", "curriculo", "currículo", "cv",
	"salario", "salário", "proposta", "oferta", "negocia",
	"aplica", "candidatura", "processo", "recrutador", "linkedin",
	"follow-up", "followup", "contratado", "demiss", "promoção", "promocao",
	"gestor", "chefe", "equipe", "transição", "transicao", "senioridade",
	"metricas", "métricas", "insight", "taxa", "conversão", "conversao",
	"pendente", "status", "resultado", "feedback", "skill", "habilidade",
}

// 明显跑题的主题，命中即拒绝。
var offTopicKeywords = []string{
	"receita de", "bolo", "futebol", "filme", "série", "serie",
	"política", "politica", "religião", "religiao", "criptomoeda",
	"aposta", "loteria", "namoro", "horóscopo", "horoscopo",
}

const offTopicResponse = "Sou focado em ajudar com sua carreira. Posso ajudar com suas aplicações, métricas, ou dicas de emprego?"

// CheckTopic 判断消息是否在职业话题范围内。
// 短消息（追问、确认）默认放行，由 LLM 的系统提示兜底。
func CheckTopic(message string) TopicCheckResult {
	lower := strings.ToLower(message)

	for _, keyword := range offTopicKeywords {
		if strings.Contains(lower, keyword) {
			return TopicCheckResult{OnTopic: false, SuggestedResponse: offTopicResponse}
		}
	}
	for _, keyword := range careerKeywords {
		if strings.Contains(lower, keyword) {
			return TopicCheckResult{OnTopic: true}
		}
	}
	if len([]rune(message)) <= 60 {
		return TopicCheckResult{OnTopic: true}
	}
	return TopicCheckResult{OnTopic: false, SuggestedResponse: offTopicResponse}
}
