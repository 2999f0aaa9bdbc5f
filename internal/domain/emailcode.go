package domain

// Code purposes. A code is only redeemable at the endpoint matching its purpose.
const (
	CodePurposeVerify = "verify"
	CodePurposeReset  = "reset"
)

// EmailCode is a single-use token mailed to a user for email verification or
// password reset. PK: code. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type EmailCode struct {
	Code      string `json:"code" dynamodbav:"code"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`       // "verify" | "reset"
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
