package query

// Payload is the body of a DataWeb runReport request. Field order is the
// serialization order, so equal payloads marshal to identical bytes.
type Payload struct {
	SavedQueryName       string               `json:"savedQueryName"`
	SavedQueryDesc       string               `json:"savedQueryDesc"`
	IsOwner              bool                 `json:"isOwner"`
	RunMonthly           bool                 `json:"runMonthly"`
	UnitConversion       string               `json:"unitConversion"`
	ManualConversions    []string             `json:"manualConversions"`
	ReportOptions        ReportOptions        `json:"reportOptions"`
	SearchOptions        SearchOptions        `json:"searchOptions"`
	SortingAndDataFormat SortingAndDataFormat `json:"sortingAndDataFormat"`
}

type ReportOptions struct {
	TradeType            string `json:"tradeType"`
	ClassificationSystem string `json:"classificationSystem"`
}

type SearchOptions struct {
	MiscGroup         MiscGroup         `json:"MiscGroup"`
	Commodities       Commodities       `json:"commodities"`
	ComponentSettings ComponentSettings `json:"componentSettings"`
	Countries         Countries         `json:"countries"`
}

type MiscGroup struct {
	Districts         Districts         `json:"districts"`
	ImportPrograms    ImportPrograms    `json:"importPrograms"`
	ExtImportPrograms ExtImportPrograms `json:"extImportPrograms"`
	ProvisionCodes    ProvisionCodes    `json:"provisionCodes"`
}

type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Groups struct {
	SystemGroups []string `json:"systemGroups"`
	UserGroups   []string `json:"userGroups"`
}

type UserGroups struct {
	UserGroups []string `json:"userGroups"`
}

type Districts struct {
	Aggregation         string     `json:"aggregation"`
	DistrictGroups      UserGroups `json:"districtGroups"`
	Districts           []string   `json:"districts"`
	DistrictsExpanded   []Option   `json:"districtsExpanded"`
	DistrictsSelectType string     `json:"districtsSelectType"`
}

type ImportPrograms struct {
	Aggregation        *string  `json:"aggregation"`
	ImportPrograms     []string `json:"importPrograms"`
	ProgramsSelectType string   `json:"programsSelectType"`
}

type ExtImportPrograms struct {
	Aggregation               string   `json:"aggregation"`
	ExtImportPrograms         []string `json:"extImportPrograms"`
	ExtImportProgramsExpanded []Option `json:"extImportProgramsExpanded"`
	ProgramsSelectType        string   `json:"programsSelectType"`
}

type ProvisionCodes struct {
	Aggregation                string   `json:"aggregation"`
	ProvisionCodesSelectType   string   `json:"provisionCodesSelectType"`
	RateProvisionCodes         []string `json:"rateProvisionCodes"`
	RateProvisionCodesExpanded []Option `json:"rateProvisionCodesExpanded"`
}

type Commodities struct {
	Aggregation         string   `json:"aggregation"`
	CodeDisplayFormat   string   `json:"codeDisplayFormat"`
	Commodities         []string `json:"commodities"`
	CommoditiesExpanded []Option `json:"commoditiesExpanded"`
	CommoditiesManual   string   `json:"commoditiesManual"`
	CommodityGroups     Groups   `json:"commodityGroups"`
	CommoditySelectType string   `json:"commoditySelectType"`
	Granularity         string   `json:"granularity"`
	GroupGranularity    *string  `json:"groupGranularity"`
	SearchGranularity   *string  `json:"searchGranularity"`
}

type ComponentSettings struct {
	DataToReport        []string `json:"dataToReport"`
	Scale               string   `json:"scale"`
	TimeframeSelectType string   `json:"timeframeSelectType"`
	Years               []string `json:"years"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	StartMonth          *string  `json:"startMonth"`
	EndMonth            *string  `json:"endMonth"`
	YearsTimeline       string   `json:"yearsTimeline"`
}

type Countries struct {
	Aggregation         string   `json:"aggregation"`
	Countries           []string `json:"countries"`
	CountriesExpanded   []Option `json:"countriesExpanded"`
	CountriesSelectType string   `json:"countriesSelectType"`
	CountryGroups       Groups   `json:"countryGroups"`
}

type SortingAndDataFormat struct {
	DataSort             DataSort             `json:"DataSort"`
	ReportCustomizations ReportCustomizations `json:"reportCustomizations"`
}

type SortOrder struct {
	SortData string `json:"sortData"`
	OrderBy  string `json:"orderBy"`
}

type DataSort struct {
	ColumnOrder     []string    `json:"columnOrder"`
	FullColumnOrder []string    `json:"fullColumnOrder"`
	SortOrder       []SortOrder `json:"sortOrder"`
}

type ReportCustomizations struct {
	ExportCombineTables bool   `json:"exportCombineTables"`
	ShowAllSubtotal     bool   `json:"showAllSubtotal"`
	SubtotalRecords     string `json:"subtotalRecords"`
	TotalRecords        string `json:"totalRecords"`
	ExportRawData       bool   `json:"exportRawData"`
}
