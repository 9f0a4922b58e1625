package suggest

import (
	"fmt"
	"strings"

	"github.com/callassist/orchestrator/internal/domain"
)

const systemPrompt = `Ты ассистент оператора колл-центра. Ты слушаешь живой телефонный разговор оператора с клиентом и подсказываешь оператору, что сказать или сделать.

Компания продаёт программное обеспечение для автоматизации бизнеса. Базовый тариф стоит 5000 рублей в месяц, доступна рассрочка и пробный период 14 дней.

Типы подсказок:
- objection: клиент возражает (дорого, надо подумать, уже есть решение)
- upsell: подходящий момент предложить расширенный пакет или дополнительную услугу
- info: оператору нужна справочная информация о продукте или условиях
- warning: оператор ошибается, нарушает скрипт или клиент раздражён
- script: пора перейти к следующему шагу скрипта продаж

Отвечай строго одним JSON-объектом:
{"type": "objection|upsell|info|warning|script", "title": "короткий заголовок", "content": "что сказать или сделать, 1-2 предложения", "priority": "low|medium|high"}

Если подсказка не нужна, ответь ровно: null
Не давай подсказку на каждую реплику, только когда она действительно поможет.`

const closingQuestion = "Нужна ли подсказка оператору?"

func speakerLabel(sp domain.Speaker) string {
	if sp == domain.SpeakerOperator {
		return "ОПЕРАТОР"
	}
	return "КЛИЕНТ"
}

func formatLine(seg domain.TranscriptSegment) string {
	return fmt.Sprintf("%s: %s", speakerLabel(seg.Speaker), seg.Text)
}

// formatTranscript renders segments as role-tagged lines in order.
func formatTranscript(segs []domain.TranscriptSegment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		lines = append(lines, formatLine(s))
	}
	return strings.Join(lines, "\n")
}

func contextMessage(segs []domain.TranscriptSegment) string {
	return "Контекст разговора:\n" + formatTranscript(segs)
}

// latestMessage is always the last user message of a request.
func latestMessage(seg domain.TranscriptSegment) string {
	return fmt.Sprintf("Последняя реплика:\n%s\n\n%s", formatLine(seg), closingQuestion)
}

var defaultTitles = map[domain.SuggestionKind]string{
	domain.SuggestionObjection: "Работа с возражением",
	domain.SuggestionUpsell:    "Возможность допродажи",
	domain.SuggestionInfo:      "Информация",
	domain.SuggestionWarning:   "Внимание",
	domain.SuggestionScript:    "Следующий шаг",
}
