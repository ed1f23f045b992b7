package security

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"
)

const (
	msgPasswordEmpty     = "パスワードを入力してください"
	msgPasswordTooShort  = "パスワードは%d文字以上で入力してください"
	msgPasswordVeryWeak  = "パスワードが非常に弱いです。より複雑なパスワードを設定してください"
	msgPasswordWeak      = "パスワードが弱いです。文字の組み合わせや長さを改善してください"
	msgPasswordWeakOther = "パスワードが弱いです。より安全なパスワードを設定してください"
)

// Verdict is the outcome of a password strength check. Message is empty when OK.
type Verdict struct {
	OK      bool
	Score   int
	Message string
}

// Scorer judges candidate passwords at registration and reset time.
type Scorer interface {
	Check(password string, userInputs ...string) Verdict
}

// ZxcvbnScorer rates passwords with zxcvbn and accepts scores at or above MinScore.
type ZxcvbnScorer struct {
	MinScore  int
	MinLength int
}

// NewScorer builds the default scorer. Non-positive values fall back to a
// minimum score of 2 and a minimum length of 6.
func NewScorer(minScore, minLength int) *ZxcvbnScorer {
	if minScore <= 0 {
		minScore = 2
	}
	if minLength <= 0 {
		minLength = 6
	}
	return &ZxcvbnScorer{MinScore: minScore, MinLength: minLength}
}

func (s *ZxcvbnScorer) Check(password string, userInputs ...string) Verdict {
	if strings.TrimSpace(password) == "" {
		return Verdict{Message: msgPasswordEmpty}
	}
	if utf8.RuneCountInString(password) < s.MinLength {
		return Verdict{Message: fmt.Sprintf(msgPasswordTooShort, s.MinLength)}
	}

	score := zxcvbn.PasswordStrength(password, userInputs).Score
	if score >= s.MinScore {
		return Verdict{OK: true, Score: score}
	}

	switch score {
	case 0:
		return Verdict{Score: score, Message: msgPasswordVeryWeak}
	case 1:
		return Verdict{Score: score, Message: msgPasswordWeak}
	default:
		return Verdict{Score: score, Message: msgPasswordWeakOther}
	}
}
