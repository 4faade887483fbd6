package aws

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingTypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/diillson/cloud-price-comparator/internal/adapter/driven/static"
	"github.com/diillson/cloud-price-comparator/internal/domain/entity"
	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// The Price List API is only served from a few regions.
const pricingRegion = "us-east-1"

// AWSRepositoryImpl implementa PriceSource e ScopeRepository com cache de clientes.
// Cada perfil do ~/.aws é exposto como um escopo.
type AWSRepositoryImpl struct {
	defaultProfile string
	configDir      string

	cfgCache    map[string]aws.Config
	clientCache map[string]interface{}
	mu          sync.Mutex
}

var (
	_ repository.PriceSource     = (*AWSRepositoryImpl)(nil)
	_ repository.ScopeRepository = (*AWSRepositoryImpl)(nil)
)

// NewAWSRepository cria uma nova implementação do repositório AWS. Um perfil
// vazio usa a cadeia de credenciais padrão do SDK.
func NewAWSRepository(defaultProfile string) *AWSRepositoryImpl {
	homeDir, err := os.UserHomeDir()
	configDir := ""
	if err == nil {
		configDir = filepath.Join(homeDir, ".aws")
	}
	return &AWSRepositoryImpl{
		defaultProfile: defaultProfile,
		configDir:      configDir,
		cfgCache:       make(map[string]aws.Config),
		clientCache:    make(map[string]interface{}),
	}
}

func (r *AWSRepositoryImpl) Provider() entity.Provider {
	return entity.ProviderAWS
}

func (r *AWSRepositoryImpl) profileFor(scope string) string {
	if scope != "" {
		return scope
	}
	return r.defaultProfile
}

func (r *AWSRepositoryImpl) getAWSConfig(ctx context.Context, profile string) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.cfgCache[profile]; ok {
		return cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for profile %s: %w", profile, err)
	}

	r.cfgCache[profile] = cfg
	return cfg, nil
}

func (r *AWSRepositoryImpl) getServiceClient(ctx context.Context, profile, region, service string) (interface{}, error) {
	cacheKey := fmt.Sprintf("%s-%s-%s", profile, region, service)

	r.mu.Lock()
	if client, ok := r.clientCache[cacheKey]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx, profile)
	if err != nil {
		return nil, err
	}

	regionalCfg := cfg.Copy()
	if region != "" {
		regionalCfg.Region = region
	}
	if regionalCfg.Region == "" {
		regionalCfg.Region = pricingRegion
	}

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(regionalCfg)
	case "ec2":
		client = ec2.NewFromConfig(regionalCfg)
	case "pricing":
		regionalCfg.Region = pricingRegion
		client = pricing.NewFromConfig(regionalCfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[cacheKey] = client
	r.mu.Unlock()

	return client, nil
}

// --- Preços ---

// FetchPrices combina o preço on-demand e reservado da Price List API com o
// preço spot mais baixo entre as zonas de disponibilidade da região.
func (r *AWSRepositoryImpl) FetchPrices(ctx context.Context, instanceType, region, scope string) ([]entity.RawPriceEntry, error) {
	profile := r.profileFor(scope)

	client, err := r.getServiceClient(ctx, profile, pricingRegion, "pricing")
	if err != nil {
		return nil, err
	}
	pricingClient := client.(*pricing.Client)

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters:     productFilters(instanceType, region),
		MaxResults:  aws.Int32(100),
	}

	var priceList []string
	paginator := pricing.NewGetProductsPaginator(pricingClient, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting EC2 products for %s in %s: %w", instanceType, region, err)
		}
		priceList = append(priceList, output.PriceList...)
	}

	terms, found, err := parsePriceList(priceList)
	if err != nil {
		return nil, err
	}
	if !found {
		return []entity.RawPriceEntry{}, nil
	}

	entry := entity.RawPriceEntry{
		"provider":        string(entity.ProviderAWS),
		"instance_type":   instanceType,
		"region":          region,
		"on_demand_price": terms.OnDemand.String(),
	}
	if terms.Reserved1y != nil {
		entry["reserved_price_1y"] = terms.Reserved1y.String()
	}
	if terms.Reserved3y != nil {
		entry["reserved_price_3y"] = terms.Reserved3y.String()
	}

	// Spot é opcional: uma falha aqui não invalida os demais preços.
	if spot, err := r.spotPrice(ctx, profile, instanceType, region); err == nil && spot != nil {
		entry["spot_price"] = spot.String()
	}

	return []entity.RawPriceEntry{entry}, nil
}

func productFilters(instanceType, region string) []pricingTypes.Filter {
	terms := []struct{ field, value string }{
		{"instanceType", instanceType},
		{"regionCode", region},
		{"operatingSystem", "Linux"},
		{"tenancy", "Shared"},
		{"preInstalledSw", "NA"},
		{"capacitystatus", "Used"},
	}
	filters := make([]pricingTypes.Filter, 0, len(terms))
	for _, t := range terms {
		filters = append(filters, pricingTypes.Filter{
			Type:  pricingTypes.FilterTypeTermMatch,
			Field: aws.String(t.field),
			Value: aws.String(t.value),
		})
	}
	return filters
}

func (r *AWSRepositoryImpl) spotPrice(ctx context.Context, profile, instanceType, region string) (*decimal.Decimal, error) {
	client, err := r.getServiceClient(ctx, profile, region, "ec2")
	if err != nil {
		return nil, err
	}
	ec2Client := client.(*ec2.Client)

	output, err := ec2Client.DescribeSpotPriceHistory(ctx, &ec2.DescribeSpotPriceHistoryInput{
		InstanceTypes:       []ec2Types.InstanceType{ec2Types.InstanceType(instanceType)},
		ProductDescriptions: []string{"Linux/UNIX"},
		StartTime:           aws.Time(time.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("error getting spot price history for %s in %s: %w", instanceType, region, err)
	}

	var lowest *decimal.Decimal
	for _, sp := range output.SpotPriceHistory {
		if sp.SpotPrice == nil {
			continue
		}
		price, err := decimal.NewFromString(*sp.SpotPrice)
		if err != nil {
			continue
		}
		if lowest == nil || price.LessThan(*lowest) {
			p := price
			lowest = &p
		}
	}
	return lowest, nil
}

// --- Catálogos ---

func (r *AWSRepositoryImpl) FetchRegions(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	client, err := r.getServiceClient(ctx, r.profileFor(scope), pricingRegion, "ec2")
	if err != nil {
		return nil, err
	}
	ec2Client := client.(*ec2.Client)

	regionsOutput, err := ec2Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		return nil, fmt.Errorf("error describing regions: %w", err)
	}

	names := static.DefaultCatalog(entity.ProviderAWS).Regions
	entries := make([]entity.RawCatalogEntry, 0, len(regionsOutput.Regions))
	for _, region := range regionsOutput.Regions {
		if region.RegionName == nil {
			continue
		}
		id := *region.RegionName
		name := names[id]
		if name == "" {
			name = id
		}
		entries = append(entries, entity.RawCatalogEntry{"id": id, "name": name, "provider": string(entity.ProviderAWS)})
	}
	return entries, nil
}

// FetchInstanceTypes lista os tipos oferecidos na região padrão do perfil,
// com vCPU e memória no nome de exibição.
func (r *AWSRepositoryImpl) FetchInstanceTypes(ctx context.Context, scope string) ([]entity.RawCatalogEntry, error) {
	client, err := r.getServiceClient(ctx, r.profileFor(scope), "", "ec2")
	if err != nil {
		return nil, err
	}
	ec2Client := client.(*ec2.Client)

	var entries []entity.RawCatalogEntry
	paginator := ec2.NewDescribeInstanceTypesPaginator(ec2Client, &ec2.DescribeInstanceTypesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error describing instance types: %w", err)
		}
		for _, it := range output.InstanceTypes {
			entries = append(entries, entity.RawCatalogEntry{
				"id":       string(it.InstanceType),
				"name":     instanceTypeName(it),
				"provider": string(entity.ProviderAWS),
			})
		}
	}
	return entries, nil
}

func instanceTypeName(it ec2Types.InstanceTypeInfo) string {
	var vcpus int32
	if it.VCpuInfo != nil && it.VCpuInfo.DefaultVCpus != nil {
		vcpus = *it.VCpuInfo.DefaultVCpus
	}
	var memMiB int64
	if it.MemoryInfo != nil && it.MemoryInfo.SizeInMiB != nil {
		memMiB = *it.MemoryInfo.SizeInMiB
	}
	if vcpus == 0 && memMiB == 0 {
		return string(it.InstanceType)
	}
	return fmt.Sprintf("%s (%d vCPU, %s GiB)", it.InstanceType, vcpus, formatGiB(memMiB))
}

func formatGiB(mib int64) string {
	return decimal.NewFromInt(mib).Div(decimal.NewFromInt(1024)).Round(2).String()
}

// --- Escopos ---

// GetAWSProfiles lê os perfis de ~/.aws/credentials e ~/.aws/config.
func (r *AWSRepositoryImpl) GetAWSProfiles() []string {
	if r.configDir == "" {
		return []string{"default"}
	}

	credentialsPath := filepath.Join(r.configDir, "credentials")
	configPath := filepath.Join(r.configDir, "config")

	profiles := make(map[string]bool)
	profileRegex := regexp.MustCompile(`\[([^]]+)\]`)

	parseFile := func(path string, isConfig bool) {
		content, err := os.ReadFile(path)
		if err != nil {
			return
		}
		matches := profileRegex.FindAllStringSubmatch(string(content), -1)
		for _, match := range matches {
			profileName := strings.TrimSpace(match[1])
			if isConfig {
				if strings.HasPrefix(profileName, "sso-session ") || strings.HasPrefix(profileName, "services ") {
					continue
				}
				profileName = strings.TrimPrefix(profileName, "profile ")
			}
			profiles[profileName] = true
		}
	}

	parseFile(credentialsPath, false)
	parseFile(configPath, true)

	if len(profiles) == 0 {
		profiles["default"] = true
	}

	result := make([]string, 0, len(profiles))
	for profile := range profiles {
		result = append(result, profile)
	}
	sort.Strings(result)
	return result
}

func (r *AWSRepositoryImpl) GetAccountID(ctx context.Context, profile string) (string, error) {
	client, err := r.getServiceClient(ctx, profile, pricingRegion, "sts")
	if err != nil {
		return "", err
	}
	stsClient := client.(*sts.Client)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("error getting account ID for profile %s: %w", profile, err)
	}
	return aws.ToString(result.Account), nil
}

// FetchAccountScopes expõe cada perfil como escopo. Perfis cujas credenciais
// não resolvem uma conta aparecem como "Expired".
func (r *AWSRepositoryImpl) FetchAccountScopes(ctx context.Context) ([]entity.RawScope, error) {
	profiles := r.GetAWSProfiles()
	scopes := make([]entity.RawScope, len(profiles))

	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(i int, profile string) {
			defer wg.Done()

			scope := entity.RawScope{
				"scopeId":     profile,
				"displayName": profile,
				"state":       "Enabled",
				"provider":    string(entity.ProviderAWS),
			}
			accountID, err := r.GetAccountID(ctx, profile)
			if err != nil {
				scope["state"] = "Expired"
			} else if accountID != "" {
				scope["displayName"] = fmt.Sprintf("%s (%s)", profile, accountID)
			}
			scopes[i] = scope
		}(i, profile)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scopes, nil
}
