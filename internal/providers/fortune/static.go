package fortune

import (
	"context"
	"hash/fnv"

	"server/internal/domain"
)

// Static is the last generator in the chain: canned Thai replies used when
// every remote provider is down, so the teller never goes silent entirely.
type Static struct {
	Particle string
}

var staticReplies = []string{
	"ดวงดาววันนี้ขยับช้ากว่าปกติ ขอให้ใจเย็นและตั้งคำถามอีกครั้งนะ",
	"พลังงานรอบตัวกำลังแปรปรวน ลองหายใจลึก ๆ แล้วถามใหม่อีกครั้งนะ",
	"ไพ่ยังไม่เผยคำตอบในตอนนี้ โปรดรอสักครู่แล้วลองใหม่นะ",
}

func (s *Static) Generate(_ context.Context, req Request) (string, error) {
	particle := s.Particle
	if particle == "" {
		particle = "ค่ะ"
	}
	var last string
	for i := len(req.History) - 1; i >= 0; i-- {
		if req.History[i].Role == domain.RoleUser {
			last = req.History[i].Text
			break
		}
	}
	h := fnv.New32a()
	h.Write([]byte(last))
	return staticReplies[int(h.Sum32())%len(staticReplies)] + particle, nil
}
