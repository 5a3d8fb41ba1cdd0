package evaluation

import (
	"fmt"
	"strings"
)

const (
	strongThreshold = 80

	feedbackHigh = 85
	feedbackMid  = 70

	defaultMajorLabel = "所学专业"
)

type dimensionScores struct {
	content    int
	fluency    int
	confidence int
	depth      int
	attitude   int
}

var (
	degenerateStrengths = []string{
		"愿意尝试回答问题",
	}
	degenerateImprovements = []string{
		"回答内容过于简短，请展开说明你的观点",
		"尝试结合具体经历或案例来支撑回答",
		"回答前先梳理思路，按照一定结构组织语言",
	}
	degenerateFeedback = "回答过于简短，无法全面评估你的能力。建议至少用几句话完整表达观点，并结合自身经历加以说明。"

	degenerateRecommendations = []string{
		"先熟悉常见面试问题并准备回答要点",
		"练习用完整的句子表达自己的想法",
		"尝试使用STAR法则组织回答",
		"每次练习后回顾并改进回答内容",
	}

	fallbackStrengths = []string{
		"完成了完整的回答",
		"能够围绕问题进行表达",
	}

	fixedRecommendations = []string{
		"多进行模拟面试练习，熟悉面试节奏",
		"使用STAR法则（情境、任务、行动、结果）组织回答",
		"提前了解岗位要求，准备与岗位相关的案例",
		"注意控制回答时长，做到重点突出、详略得当",
	}
)

func strengths(s dimensionScores) []string {
	out := make([]string, 0, 5)
	if s.content >= strongThreshold {
		out = append(out, "专业知识扎实，能够运用专业术语")
	}
	if s.fluency >= strongThreshold {
		out = append(out, "表达流畅，逻辑清晰")
	}
	if s.confidence >= strongThreshold {
		out = append(out, "表现自信，回答有说服力")
	}
	if s.depth >= strongThreshold {
		out = append(out, "回答有深度，能够结合实例展开分析")
	}
	if s.attitude >= strongThreshold {
		out = append(out, "态度积极，展现出对工作的热情")
	}
	if len(out) == 0 {
		out = append(out, fallbackStrengths...)
	}
	return out
}

func improvements(s dimensionScores, major string) []string {
	out := make([]string, 0, 5)
	if s.content < strongThreshold {
		out = append(out, fmt.Sprintf("加强%s相关专业知识的学习，在回答中体现专业素养", majorLabel(major)))
	}
	if s.fluency < strongThreshold {
		out = append(out, "注意语言组织，多使用因为、所以、首先、其次等连接词")
	}
	if s.confidence < strongThreshold {
		out = append(out, "提升自信心，回答时语气坚定，避免含糊其辞")
	}
	if s.depth < strongThreshold {
		out = append(out, "增加回答深度，结合具体案例和个人反思进行说明")
	}
	if s.attitude < strongThreshold {
		out = append(out, "展现更积极的态度，表达对岗位的兴趣和热情")
	}
	return out
}

func detailedFeedback(s dimensionScores, major string) string {
	label := majorLabel(major)
	sentences := make([]string, 0, 3)

	switch {
	case s.content >= feedbackHigh:
		sentences = append(sentences, fmt.Sprintf("你在%s方面的专业知识表现出色，能够准确运用专业概念。", label))
	case s.content >= feedbackMid:
		sentences = append(sentences, fmt.Sprintf("你具备一定的%s专业基础，但还可以展示更多专业深度。", label))
	default:
		sentences = append(sentences, fmt.Sprintf("建议加强%s专业知识的积累，并在回答中体现出来。", label))
	}

	switch {
	case s.fluency >= feedbackHigh:
		sentences = append(sentences, "你的表达非常流畅，逻辑结构清晰。")
	case s.fluency >= feedbackMid:
		sentences = append(sentences, "你的表达基本流畅，可以进一步加强逻辑衔接。")
	default:
		sentences = append(sentences, "表达的连贯性有待提高，建议先理清思路再作答。")
	}

	switch {
	case s.attitude >= feedbackHigh:
		sentences = append(sentences, "你展现出了非常积极的态度和热情。")
	case s.attitude >= feedbackMid:
		sentences = append(sentences, "你的态度比较积极，可以更多地表达对岗位的兴趣。")
	default:
		sentences = append(sentences, "建议在回答中展现更加积极正面的态度。")
	}

	return strings.Join(sentences, " ")
}

func recommendations() []string {
	return append([]string(nil), fixedRecommendations...)
}

func majorLabel(major string) string {
	major = strings.TrimSpace(major)
	if major == "" {
		return defaultMajorLabel
	}
	return major
}
