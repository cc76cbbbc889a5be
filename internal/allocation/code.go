package allocation

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/prizewheel/internal/config"
)

const codeTokenLength = 10

// CodeGenerator mints discount codes of the form PREFIX-XXXXXXXXXX.
type CodeGenerator interface {
	NewCode() string
}

type ulidCodes struct {
	policy *config.RewardPolicyHolder
	now    func() time.Time
}

func NewCodeGenerator(policy *config.RewardPolicyHolder) CodeGenerator {
	return &ulidCodes{policy: policy, now: time.Now}
}

// NewCode takes the tail of the ULID entropy so codes minted in the same
// millisecond still differ in every character position that is shown.
func (g *ulidCodes) NewCode() string {
	id := ulid.MustNew(ulid.Timestamp(g.now()), rand.Reader)
	encoded := id.String()
	token := encoded[len(encoded)-codeTokenLength:]

	prefix := strings.TrimSpace(g.policy.Get().CodePrefix)
	if prefix == "" {
		prefix = config.DefaultRewardPolicy().CodePrefix
	}
	return strings.ToUpper(prefix) + "-" + token
}
