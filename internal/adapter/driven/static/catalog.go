package static

import "github.com/diillson/cloud-price-comparator/internal/domain/entity"

// DefaultCatalog returns the built-in offline catalog for provider.
func DefaultCatalog(provider entity.Provider) Catalog {
	switch provider {
	case entity.ProviderAWS:
		return awsCatalog()
	case entity.ProviderAzure:
		return azureCatalog()
	case entity.ProviderGCP:
		return gcpCatalog()
	}
	return Catalog{}
}

func awsCatalog() Catalog {
	return Catalog{
		Regions: map[string]string{
			"us-east-1":      "US East (N. Virginia)",
			"us-east-2":      "US East (Ohio)",
			"us-west-1":      "US West (N. California)",
			"us-west-2":      "US West (Oregon)",
			"eu-west-1":      "Europe (Ireland)",
			"eu-central-1":   "Europe (Frankfurt)",
			"ap-northeast-1": "Asia Pacific (Tokyo)",
			"ap-southeast-1": "Asia Pacific (Singapore)",
		},
		InstanceTypes: map[string]string{
			"t2.micro":  "t2.micro (1 vCPU, 1 GiB)",
			"t2.small":  "t2.small (1 vCPU, 2 GiB)",
			"t2.medium": "t2.medium (2 vCPU, 4 GiB)",
			"t3.micro":  "t3.micro (2 vCPU, 1 GiB)",
			"t3.small":  "t3.small (2 vCPU, 2 GiB)",
			"t3.medium": "t3.medium (2 vCPU, 4 GiB)",
			"m5.large":  "m5.large (2 vCPU, 8 GiB)",
			"m5.xlarge": "m5.xlarge (4 vCPU, 16 GiB)",
		},
		Prices: map[string]SamplePrice{
			"t2.micro":  {OnDemand: 0.0464, Spot: 0.0139, Reserved1y: 0.0299, Reserved3y: 0.0199},
			"t2.small":  {OnDemand: 0.0230, Spot: 0.0069, Reserved1y: 0.0146, Reserved3y: 0.0100},
			"t2.medium": {OnDemand: 0.0464, Spot: 0.0139, Reserved1y: 0.0292, Reserved3y: 0.0200},
			"t3.micro":  {OnDemand: 0.0104, Spot: 0.0031, Reserved1y: 0.0065, Reserved3y: 0.0045},
			"t3.small":  {OnDemand: 0.0208, Spot: 0.0062, Reserved1y: 0.0130, Reserved3y: 0.0089},
			"t3.medium": {OnDemand: 0.0416, Spot: 0.0125, Reserved1y: 0.0261, Reserved3y: 0.0179},
			"m5.large":  {OnDemand: 0.0960, Spot: 0.0350, Reserved1y: 0.0600, Reserved3y: 0.0410},
			"m5.xlarge": {OnDemand: 0.1920, Spot: 0.0700, Reserved1y: 0.1200, Reserved3y: 0.0820},
		},
		RegionFactor: map[string]float64{
			"us-west-1":      1.17,
			"eu-west-1":      1.08,
			"eu-central-1":   1.15,
			"ap-northeast-1": 1.25,
			"ap-southeast-1": 1.20,
		},
	}
}

func azureCatalog() Catalog {
	return Catalog{
		Regions: map[string]string{
			"eastus":        "East US",
			"eastus2":       "East US 2",
			"westus":        "West US",
			"westus2":       "West US 2",
			"northeurope":   "North Europe",
			"westeurope":    "West Europe",
			"southeastasia": "Southeast Asia",
			"japaneast":     "Japan East",
		},
		InstanceTypes: map[string]string{
			"Standard_B1s":    "Standard_B1s",
			"Standard_B2s":    "Standard_B2s",
			"Standard_D2s_v3": "Standard_D2s_v3",
			"Standard_D4s_v3": "Standard_D4s_v3",
			"Standard_F2s_v2": "Standard_F2s_v2",
			"Standard_F4s_v2": "Standard_F4s_v2",
			"Standard_E2s_v3": "Standard_E2s_v3",
			"Standard_E4s_v3": "Standard_E4s_v3",
		},
		Prices: map[string]SamplePrice{
			"Standard_B1s":    {OnDemand: 0.0496, Spot: 0.0149, Reserved1y: 0.0298, Reserved3y: 0.0199},
			"Standard_B2s":    {OnDemand: 0.0416, Reserved1y: 0.0246, Reserved3y: 0.0158},
			"Standard_D2s_v3": {OnDemand: 0.0960, Spot: 0.0192, Reserved1y: 0.0566, Reserved3y: 0.0364},
			"Standard_D4s_v3": {OnDemand: 0.1920, Spot: 0.0384, Reserved1y: 0.1132, Reserved3y: 0.0728},
			"Standard_F2s_v2": {OnDemand: 0.0846, Spot: 0.0169, Reserved1y: 0.0535, Reserved3y: 0.0343},
			"Standard_F4s_v2": {OnDemand: 0.1690, Spot: 0.0338, Reserved1y: 0.1070, Reserved3y: 0.0686},
			"Standard_E2s_v3": {OnDemand: 0.1260, Spot: 0.0252, Reserved1y: 0.0743, Reserved3y: 0.0478},
			"Standard_E4s_v3": {OnDemand: 0.2520, Spot: 0.0504, Reserved1y: 0.1486, Reserved3y: 0.0956},
		},
		RegionFactor: map[string]float64{
			"westus":        1.10,
			"northeurope":   1.07,
			"westeurope":    1.12,
			"southeastasia": 1.18,
			"japaneast":     1.26,
		},
		Scopes: []entity.RawScope{
			{"subscriptionId": "00000000-0000-0000-0000-000000000001", "displayName": "Sample Production", "state": "Enabled"},
			{"subscriptionId": "00000000-0000-0000-0000-000000000002", "displayName": "Sample Sandbox", "state": "Disabled"},
		},
	}
}

func gcpCatalog() Catalog {
	return Catalog{
		Regions: map[string]string{
			"us-central1":  "US Central (Iowa)",
			"us-east1":     "US East (South Carolina)",
			"us-east4":     "US East (Northern Virginia)",
			"us-west1":     "US West (Oregon)",
			"europe-west1": "Europe West (Belgium)",
			"asia-east1":   "Asia East (Taiwan)",
		},
		InstanceTypes: map[string]string{
			"n1-standard-1": "n1-standard-1",
			"n1-standard-2": "n1-standard-2",
			"n1-standard-4": "n1-standard-4",
			"n1-standard-8": "n1-standard-8",
			"n2-standard-2": "n2-standard-2",
			"n2-standard-4": "n2-standard-4",
			"e2-standard-2": "e2-standard-2",
			"e2-standard-4": "e2-standard-4",
		},
		Prices: map[string]SamplePrice{
			"n1-standard-1": {OnDemand: 0.0475, Spot: 0.0100, Reserved1y: 0.0299, Reserved3y: 0.0214},
			"n1-standard-2": {OnDemand: 0.0950, Spot: 0.0200, Reserved1y: 0.0599, Reserved3y: 0.0428},
			"n1-standard-4": {OnDemand: 0.1900, Spot: 0.0400, Reserved1y: 0.1197, Reserved3y: 0.0855},
			"n1-standard-8": {OnDemand: 0.3800, Spot: 0.0800, Reserved1y: 0.2394, Reserved3y: 0.1710},
			"n2-standard-2": {OnDemand: 0.0971, Spot: 0.0235, Reserved1y: 0.0612, Reserved3y: 0.0437},
			"n2-standard-4": {OnDemand: 0.1942, Spot: 0.0470, Reserved1y: 0.1223, Reserved3y: 0.0874},
			"e2-standard-2": {OnDemand: 0.0670, Spot: 0.0201, Reserved1y: 0.0422, Reserved3y: 0.0302},
			"e2-standard-4": {OnDemand: 0.1340, Spot: 0.0402, Reserved1y: 0.0844, Reserved3y: 0.0603},
		},
		RegionFactor: map[string]float64{
			"us-east4":     1.13,
			"europe-west1": 1.10,
			"asia-east1":   1.16,
		},
	}
}
