package catalog

import "github.com/sells-group/esg-intel/internal/model"

// defaultVersion identifies the embedded catalog revision.
const defaultVersion = "2026-08"

// Default returns the embedded catalog: six metric categories and the fixed
// framework set (CSRD, EU Taxonomy, GRI, TCFD, SASB, CDP, SFDR, ISSB).
func Default() *Catalog {
	return &Catalog{
		Version: defaultVersion,
		Categories: []Category{
			{
				Category: model.CategoryEmissions,
				Patterns: []string{
					`carbon\s+(?:dioxide\s+)?emissions?`,
					`greenhouse\s+gas(?:\s+emissions?)?`,
					`ghg\s+emissions?`,
					`scope\s*[123]`,
					`net[\s-]zero`,
					`co2e?\s+emissions?`,
					`carbon\s+footprint`,
					`carbon\s+neutral(?:ity)?`,
				},
				Keywords: []string{"emission", "ghg", "co2", "carbon", "scope"},
			},
			{
				Category: model.CategoryEnergy,
				Patterns: []string{
					`energy\s+consumption`,
					`energy\s+use`,
					`renewable\s+energy`,
					`electricity\s+consum(?:ed|ption)`,
					`energy\s+intensity`,
					`solar\s+power`,
					`wind\s+power`,
				},
				Keywords: []string{"energy", "electricity", "renewable", "mwh", "gwh", "kwh"},
			},
			{
				Category: model.CategoryWater,
				Patterns: []string{
					`water\s+(?:consumption|use|usage)`,
					`water\s+withdraw(?:al|n)`,
					`water\s+recycl(?:ed|ing)`,
					`water\s+discharge`,
					`water\s+stress`,
				},
				Keywords: []string{"water", "withdrawal", "discharge", "megalit"},
			},
			{
				Category: model.CategoryWaste,
				Patterns: []string{
					`waste\s+(?:generated|generation)`,
					`waste\s+(?:diverted|recycl(?:ed|ing))`,
					`hazardous\s+waste`,
					`landfill`,
					`circular\s+economy`,
				},
				Keywords: []string{"waste", "recycl", "landfill", "circular"},
			},
			{
				Category: model.CategorySocial,
				Patterns: []string{
					`gender\s+(?:diversity|pay\s+gap)`,
					`employee\s+(?:turnover|engagement|training)`,
					`health\s+and\s+safety`,
					`lost[\s-]time\s+injur(?:y|ies)`,
					`human\s+rights`,
					`diversity[,\s]+equity`,
					`living\s+wage`,
				},
				Keywords: []string{"employee", "diversity", "safety", "social", "workforce", "injury"},
			},
			{
				Category: model.CategoryGovernance,
				Patterns: []string{
					`board\s+(?:diversity|independence|oversight)`,
					`executive\s+(?:compensation|remuneration)`,
					`anti[\s-]corruption`,
					`anti[\s-]bribery`,
					`whistleblow(?:er|ing)`,
					`business\s+ethics`,
					`data\s+(?:privacy|protection)`,
				},
				Keywords: []string{"board", "governance", "ethics", "corruption", "audit"},
			},
		},
		Frameworks: []Framework{
			{
				ID:   "csrd",
				Name: "Corporate Sustainability Reporting Directive",
				Keywords: []string{
					"csrd", "corporate sustainability reporting directive",
					"esrs", "european sustainability reporting standards",
					"double materiality",
				},
				Codes: []DisclosureCode{
					{Code: "ESRS E1", Title: "Climate change", Patterns: []string{`esrs\s*e1`, `climate\s+change\s+(?:mitigation|adaptation)`}},
					{Code: "ESRS E2", Title: "Pollution", Patterns: []string{`esrs\s*e2`, `pollution\s+of\s+(?:air|water|soil)`}},
					{Code: "ESRS E3", Title: "Water and marine resources", Patterns: []string{`esrs\s*e3`, `water\s+and\s+marine\s+resources`}},
					{Code: "ESRS E4", Title: "Biodiversity and ecosystems", Patterns: []string{`esrs\s*e4`, `biodiversity\s+and\s+ecosystems?`}},
					{Code: "ESRS E5", Title: "Resource use and circular economy", Patterns: []string{`esrs\s*e5`, `resource\s+use\s+and\s+circular\s+economy`}},
					{Code: "ESRS S1", Title: "Own workforce", Patterns: []string{`esrs\s*s1`, `own\s+workforce`}},
					{Code: "ESRS S2", Title: "Workers in the value chain", Patterns: []string{`esrs\s*s2`, `workers\s+in\s+the\s+value\s+chain`}},
					{Code: "ESRS S3", Title: "Affected communities", Patterns: []string{`esrs\s*s3`, `affected\s+communities`}},
					{Code: "ESRS S4", Title: "Consumers and end-users", Patterns: []string{`esrs\s*s4`, `consumers\s+and\s+end[\s-]users`}},
					{Code: "ESRS G1", Title: "Business conduct", Patterns: []string{`esrs\s*g1`, `business\s+conduct`}},
				},
			},
			{
				ID:   "eu_taxonomy",
				Name: "EU Taxonomy",
				Keywords: []string{
					"eu taxonomy", "taxonomy regulation", "taxonomy-aligned",
					"taxonomy-eligible", "green asset ratio",
				},
				Codes: []DisclosureCode{
					{Code: "CCM", Title: "Climate change mitigation", Patterns: []string{`climate\s+change\s+mitigation`}},
					{Code: "CCA", Title: "Climate change adaptation", Patterns: []string{`climate\s+change\s+adaptation`}},
					{Code: "WTR", Title: "Sustainable use of water", Patterns: []string{`sustainable\s+use\s+(?:and\s+protection\s+)?of\s+water`}},
					{Code: "CE", Title: "Transition to a circular economy", Patterns: []string{`transition\s+to\s+a\s+circular\s+economy`}},
					{Code: "PPC", Title: "Pollution prevention and control", Patterns: []string{`pollution\s+prevention(?:\s+and\s+control)?`}},
					{Code: "BIO", Title: "Protection of biodiversity", Patterns: []string{`protection\s+(?:and\s+restoration\s+)?of\s+biodiversity`}},
				},
			},
			{
				ID:   "gri",
				Name: "Global Reporting Initiative",
				Keywords: []string{
					"gri", "global reporting initiative", "gri standards",
					"in accordance with the gri",
				},
				Codes: []DisclosureCode{
					{Code: "GRI 302", Title: "Energy", Patterns: []string{`gri\s*302`}},
					{Code: "GRI 303", Title: "Water and effluents", Patterns: []string{`gri\s*303`}},
					{Code: "GRI 305", Title: "Emissions", Patterns: []string{`gri\s*305`}},
					{Code: "GRI 306", Title: "Waste", Patterns: []string{`gri\s*306`}},
					{Code: "GRI 401", Title: "Employment", Patterns: []string{`gri\s*401`}},
					{Code: "GRI 403", Title: "Occupational health and safety", Patterns: []string{`gri\s*403`}},
					{Code: "GRI 405", Title: "Diversity and equal opportunity", Patterns: []string{`gri\s*405`}},
				},
			},
			{
				ID:   "tcfd",
				Name: "Task Force on Climate-related Financial Disclosures",
				Keywords: []string{
					"tcfd", "task force on climate-related financial disclosures",
					"climate-related financial disclosures",
				},
				Codes: []DisclosureCode{
					{Code: "GOV", Title: "Governance", Patterns: []string{`governance\s+(?:of|around)\s+climate`, `board(?:'s)?\s+oversight\s+of\s+climate`}},
					{Code: "STR", Title: "Strategy", Patterns: []string{`climate[\s-]related\s+risks?\s+and\s+opportunit(?:y|ies)`, `scenario\s+analysis`}},
					{Code: "RSK", Title: "Risk management", Patterns: []string{`climate[\s-]related\s+risk\s+management`, `process(?:es)?\s+for\s+(?:identifying|assessing|managing)\s+climate`}},
					{Code: "MT", Title: "Metrics and targets", Patterns: []string{`climate[\s-]related\s+(?:metrics|targets)`, `emissions?\s+reduction\s+targets?`}},
				},
			},
			{
				ID:   "sasb",
				Name: "Sustainability Accounting Standards Board",
				Keywords: []string{
					"sasb", "sustainability accounting standards board",
					"sasb standards",
				},
			},
			{
				ID:   "cdp",
				Name: "Carbon Disclosure Project",
				Keywords: []string{
					"cdp", "carbon disclosure project", "cdp climate change",
					"cdp score",
				},
			},
			{
				ID:   "sfdr",
				Name: "Sustainable Finance Disclosure Regulation",
				Keywords: []string{
					"sfdr", "sustainable finance disclosure regulation",
					"principal adverse impact", "article 8", "article 9",
				},
			},
			{
				ID:   "issb",
				Name: "International Sustainability Standards Board",
				Keywords: []string{
					"issb", "international sustainability standards board",
					"ifrs s1", "ifrs s2",
				},
			},
		},
	}
}
