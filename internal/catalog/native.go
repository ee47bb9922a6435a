package catalog

import "github.com/davidmns/finsync/internal/model"

// nativeEntities is the catalog of sources this binary ships adapters for.
// IDs are stable across releases; natural IDs are the institutions' BICs
// where one exists.
var nativeEntities = []model.Entity{
	{
		ID:        "e9f8d9f0-2f3a-4c44-8e2b-0d9c2a7f6b11",
		Name:      "MyInvestor",
		NaturalID: "MYINESM1XXX",
		Type:      model.EntityTypeFinancialInstitution,
		Origin:    model.OriginNative,
		CredentialsTemplate: map[string]model.CredentialType{
			"user":     model.CredentialTypeUser,
			"password": model.CredentialTypePassword,
		},
		Features: []model.Feature{
			model.FeaturePosition,
			model.FeatureAutoContributions,
			model.FeatureTransactions,
		},
	},
	{
		ID:        "c1a2b3c4-5d6e-4f70-8192-a3b4c5d6e7f8",
		Name:      "Unicaja",
		NaturalID: "UCJAES2MXXX",
		Type:      model.EntityTypeFinancialInstitution,
		Origin:    model.OriginNative,
		CredentialsTemplate: map[string]model.CredentialType{
			"user":     model.CredentialTypeUser,
			"password": model.CredentialTypePassword,
			"abck":     model.CredentialTypeInternalTemp,
		},
		Features: []model.Feature{
			model.FeaturePosition,
			model.FeatureTransactions,
		},
	},
	{
		ID:        "7b1f5a2c-9d3e-4b8f-a0c1-2d3e4f5a6b7c",
		Name:      "Urbanitae",
		Type:      model.EntityTypeFinancialInstitution,
		Origin:    model.OriginNative,
		CredentialsTemplate: map[string]model.CredentialType{
			"email":    model.CredentialTypeEmail,
			"password": model.CredentialTypePassword,
		},
		Features: []model.Feature{
			model.FeaturePosition,
			model.FeatureTransactions,
			model.FeatureHistoric,
		},
	},
	{
		ID:        "4f6e8d0a-1b2c-4d3e-9f80-616263646566",
		Name:      "Kraken",
		Type:      model.EntityTypeCryptoExchange,
		Origin:    model.OriginNative,
		CredentialsTemplate: map[string]model.CredentialType{
			"api_key":    model.CredentialTypeAPIToken,
			"api_secret": model.CredentialTypeAPIToken,
		},
		Features: []model.Feature{
			model.FeaturePosition,
			model.FeatureTransactions,
		},
	},
	{
		ID:     "0a1b2c3d-4e5f-4a6b-8c9d-e0f102030405",
		Name:   "Bitcoin Wallet",
		Type:   model.EntityTypeCryptoWallet,
		Origin: model.OriginNative,
		CredentialsTemplate: map[string]model.CredentialType{
			"address": model.CredentialTypeID,
		},
		Features: []model.Feature{
			model.FeaturePosition,
		},
	},
}
