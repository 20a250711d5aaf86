package models

// AddressRecord is the plaintext postal address. It only ever exists in
// memory; at rest it is stored as an Envelope.
type AddressRecord struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Envelope is the AEAD output stored in the Addresses table. All three
// fields are hex encoded.
type Envelope struct {
	Ciphertext string `dynamodbav:"ciphertext" json:"ciphertext"`
	IV         string `dynamodbav:"iv" json:"iv"`
	AuthTag    string `dynamodbav:"authTag" json:"authTag"`
}

type Address struct {
	UserID    string   `dynamodbav:"userId" json:"userId"`
	Envelope  Envelope `dynamodbav:"envelope" json:"-"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
}

// AddressesTable is the DynamoDB table name for encrypted addresses
const AddressesTable = "Addresses"
