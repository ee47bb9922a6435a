package model

import "time"

// EntityType classifies the kind of data source an entity represents.
type EntityType string

// Entity types.
const (
	EntityTypeFinancialInstitution EntityType = "FINANCIAL_INSTITUTION"
	EntityTypeCryptoWallet         EntityType = "CRYPTO_WALLET"
	EntityTypeCryptoExchange       EntityType = "CRYPTO_EXCHANGE"
	EntityTypeCommodity            EntityType = "COMMODITY"
)

// EntityOrigin records how an entity came into the system.
type EntityOrigin string

// Entity origins.
const (
	OriginNative             EntityOrigin = "NATIVE"
	OriginManual             EntityOrigin = "MANUAL"
	OriginExternallyProvided EntityOrigin = "EXTERNALLY_PROVIDED"
	OriginInternal           EntityOrigin = "INTERNAL"
)

// CredentialType is the semantic type of one field in an entity's
// credential template. InternalTemp fields are accepted at login time but
// never persisted.
type CredentialType string

// Credential field types.
const (
	CredentialTypeID           CredentialType = "ID"
	CredentialTypeUser         CredentialType = "USER"
	CredentialTypePassword     CredentialType = "PASSWORD"
	CredentialTypePin          CredentialType = "PIN"
	CredentialTypePhone        CredentialType = "PHONE"
	CredentialTypeEmail        CredentialType = "EMAIL"
	CredentialTypeAPIToken     CredentialType = "API_TOKEN"
	CredentialTypeInternal     CredentialType = "INTERNAL"
	CredentialTypeInternalTemp CredentialType = "INTERNAL_TEMP"
)

// Entity represents a data source: a financial institution, a crypto wallet
// or exchange, or a commodity bucket. Native entities are seeded at boot;
// manual entities are created by the virtual importer.
type Entity struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	NaturalID string       `json:"naturalId,omitempty"`
	Type      EntityType   `json:"type"`
	Origin    EntityOrigin `json:"origin"`

	// CredentialsTemplate enumerates the credential fields the entity's
	// adapter expects, keyed by field name. Only populated for native entries.
	CredentialsTemplate map[string]CredentialType `json:"credentialsTemplate,omitempty"`

	// Features lists the fetch features the entity's adapter supports.
	Features []Feature `json:"features,omitempty"`

	// PinLength is the expected PIN geometry when the template contains a
	// PIN field, zero otherwise.
	PinLength int `json:"pinLength,omitempty"`
}

// Credentials holds the secret material stored for one entity. Values are
// opaque to everything except the adapter; the repository encrypts them at
// rest.
type Credentials struct {
	EntityID   string            `json:"entityId"`
	Values     map[string]string `json:"values"`
	CreatedAt  time.Time         `json:"createdAt"`
	LastUsedAt time.Time         `json:"lastUsedAt"`
	Expiration *time.Time        `json:"expiration,omitempty"`
}

// Session is reusable authenticated state for one entity: cookies, tokens or
// whatever internal state the adapter chooses to round-trip. The payload is
// opaque JSON and encrypted at rest.
type Session struct {
	EntityID   string     `json:"entityId"`
	CreatedAt  time.Time  `json:"createdAt"`
	Expiration *time.Time `json:"expiration,omitempty"`
	Payload    []byte     `json:"payload"`
}

// Expired reports whether the session carries an expiration in the past.
func (s *Session) Expired(now time.Time) bool {
	return s.Expiration != nil && !s.Expiration.After(now)
}
