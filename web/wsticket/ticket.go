package wsticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/online_judge_live/model"
)

// 浏览器 websocket 无法携带自定义 Header, 网关注入的 X-User-ID 在升级请求里
// 不可用, 所以先通过普通 HTTP 接口换取短时效票据, 再以票据建立订阅连接
type Claims struct {
	jwt.RegisteredClaims
	UserID      uint64
	GroupID     uint64
	ChallengeID uint64
}

type Ticketer struct {
	signingMethod jwt.SigningMethod
	key           []byte
	expiration    time.Duration
}

func NewTicketer(key []byte, expiration time.Duration) *Ticketer {
	return &Ticketer{
		signingMethod: jwt.SigningMethodHS512,
		key:           key,
		expiration:    expiration,
	}
}

func (t *Ticketer) Mint(userID uint64, scope model.Scope) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiration)),
		},
		UserID:      userID,
		GroupID:     scope.GroupID,
		ChallengeID: scope.ChallengeID,
	}
	token := jwt.NewWithClaims(t.signingMethod, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("Mint failed at sign ticket: %w", err)
	}
	return signed, nil
}

func (t *Ticketer) Verify(ticket string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(ticket, &claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{t.signingMethod.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("Verify failed at parse ticket: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("ticket invalid")
	}
	return &claims, nil
}

func (c *Claims) Scope() model.Scope {
	return model.Scope{GroupID: c.GroupID, ChallengeID: c.ChallengeID}
}
