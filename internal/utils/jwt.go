package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for reset secrets
    "encoding/hex"  // hex encoding of random bytes and digests
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, badly signed, expired or missing required claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed session JWT along with its expiry.  It is
// carried in the session cookie or the Authorization header.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the payload of a session token: who the caller is and the role
// they had when the token was issued.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// UserID decodes the numeric subject.
func (c Claims) UserID() (uint64, error) {
    id, err := strconv.ParseUint(c.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrInvalidToken
    }
    return id, nil
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT includes
// the subject (sub), role, expiration (exp) and issued at (iat) claims.
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := Claims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of raw and returns its
// claims.  Only HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    if _, err := claims.UserID(); err != nil {
        return Claims{}, err
    }
    return claims, nil
}

// ResetSecret is a one-time password reset secret.  Raw goes to the user,
// only HashSecret(Raw) is persisted.
type ResetSecret struct {
    Raw string
    Exp time.Time
}

// NewResetSecret returns 32 random bytes hex encoded, valid for ttl.
func NewResetSecret(ttl time.Duration) (ResetSecret, error) {
    raw, err := randomHex(32) // 32 bytes -> 64 hex chars
    if err != nil {
        return ResetSecret{}, err
    }
    return ResetSecret{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// HashSecret returns the SHA‑256 hash of a raw secret as a hex string.
func HashSecret(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

// RandomHex is exported for identifiers that need unguessable suffixes.
func RandomHex(n int) (string, error) { return randomHex(n) }
