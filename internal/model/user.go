package model

import "time"

// User represents an identity record as stored in the `users` table.
// Only the password hash ever changes after signup (on reset).
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
}

// Profile is the role-bearing one-to-one extension of a User.  The role is
// fixed at creation.
//
// Fields:
//  ID        – primary key; missions reference drivers and clients by this id.
//  UserID    – owning user (unique).
//  FullName  – display name, also exposed as the driver name on tracking.
//  Phone     – optional contact number.
//  Role      – admin, driver or client.
//  Plan      – optional plan tag ("free" at signup).
//  AvatarURL – optional avatar reference.
type Profile struct {
    ID        uint64    // profiles.id
    UserID    uint64    // profiles.user_id
    FullName  string    // profiles.full_name
    Phone     *string   // profiles.phone (nullable)
    Role      Role      // profiles.role
    Plan      *string   // profiles.plan (nullable)
    AvatarURL *string   // profiles.avatar_url (nullable)
    CreatedAt time.Time // profiles.created_at
    UpdatedAt time.Time // profiles.updated_at
}

// PasswordResetToken models a row of `password_reset_tokens`.  Only the
// SHA‑256 hash of the secret sent to the user is stored.
type PasswordResetToken struct {
    ID        uint64    // password_reset_tokens.id
    UserID    uint64    // password_reset_tokens.user_id
    TokenHash string    // password_reset_tokens.token_hash
    ExpiresAt time.Time // password_reset_tokens.expires_at
    CreatedAt time.Time // password_reset_tokens.created_at
}

// Expired reports whether the token can no longer be used at now.
func (t PasswordResetToken) Expired(now time.Time) bool {
    return !t.ExpiresAt.After(now)
}
