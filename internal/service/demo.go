package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/callassist/orchestrator/internal/domain"
)

type demoLine struct {
	speaker domain.Speaker
	text    string
}

var demoDialog = []demoLine{
	{domain.SpeakerOperator, "Добрый день! Компания «Бизнес Софт», меня зовут Анна. Чем могу помочь?"},
	{domain.SpeakerClient, "Здравствуйте, я хотел узнать про вашу систему автоматизации."},
	{domain.SpeakerOperator, "Конечно! Базовый тариф стоит пять тысяч рублей в месяц."},
	{domain.SpeakerClient, "Хм, это дороговато для нас."},
	{domain.SpeakerOperator, "Понимаю. У нас есть рассрочка и пробный период четырнадцать дней."},
	{domain.SpeakerClient, "Мне нужно подумать."},
	{domain.SpeakerOperator, "Давайте я отправлю вам предложение на почту?"},
	{domain.SpeakerClient, "Отлично, давайте. Условия меня устраивают."},
}

const demoCaller = "+79001234567"

// StartDemoCall starts a scripted call that answers, plays a dialog through
// the transcript and suggestion path, and ends itself.
func (s *Service) StartDemoCall(ctx context.Context) (*domain.Call, error) {
	callID := uuid.New().String()[:8]
	sess, call, err := s.startSession(callID, demoCaller, s.config.OperatorExtension, domain.CallDirectionIncoming)
	if err != nil {
		return nil, err
	}
	go s.playDemo(sess)
	return &call, nil
}

func (s *Service) playDemo(sess *session) {
	if !sleepCtx(sess.ctx, s.config.DemoAnswerDelay) {
		return
	}
	if _, err := s.Answer(sess.ctx, sess.id); err != nil {
		return
	}

	for _, line := range demoDialog {
		if !sleepCtx(sess.ctx, s.config.DemoLineInterval) {
			return
		}
		s.handleSegment(sess, domain.NewTranscriptSegment(sess.id, line.speaker, line.text, s.now()))
	}

	if !sleepCtx(sess.ctx, s.config.DemoLineInterval) {
		return
	}
	if s.detach(sess.id, sess) != nil {
		s.endSession(context.Background(), sess)
		log.Printf("INFO: demo call %s finished", sess.id)
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
