package discovery

// aliasEntry maps known lower-cased surface forms of one entity to its
// canonical display name. The table is ordered: containment matching walks
// it top to bottom and the first hit wins, so more specific entries must
// appear before entries whose aliases they contain.
type aliasEntry struct {
	Canonical string
	Aliases   []string
}

// aliasTable is static reference data, never mutated at runtime. It covers
// the audit firms, registries, nominee shareholders, banks, brokers, law
// firms and regulators that recur across ASX distressed-company registers.
var aliasTable = []aliasEntry{
	// Audit and advisory firms.
	{Canonical: "BDO", Aliases: []string{"bdo australia", "bdo east coast partnership", "bdo audit", "bdo"}},
	{Canonical: "KPMG", Aliases: []string{"kpmg australia", "kpmg"}},
	{Canonical: "EY", Aliases: []string{"ernst & young", "ernst and young", "ey australia", "ey"}},
	{Canonical: "PwC", Aliases: []string{"pricewaterhousecoopers", "pwc australia", "pwc"}},
	{Canonical: "Deloitte", Aliases: []string{"deloitte touche tohmatsu", "deloitte australia", "deloitte"}},
	{Canonical: "Grant Thornton", Aliases: []string{"grant thornton australia", "grant thornton"}},
	{Canonical: "RSM", Aliases: []string{"rsm australia", "rsm"}},
	{Canonical: "PKF", Aliases: []string{"pkf australia", "pkf"}},
	{Canonical: "Pitcher Partners", Aliases: []string{"pitcher partners"}},
	{Canonical: "William Buck", Aliases: []string{"william buck"}},
	{Canonical: "HLB Mann Judd", Aliases: []string{"hlb mann judd"}},
	{Canonical: "Moore Australia", Aliases: []string{"moore australia", "moore stephens"}},
	{Canonical: "Nexia", Aliases: []string{"nexia australia", "nexia"}},
	{Canonical: "McGrathNicol", Aliases: []string{"mcgrathnicol", "mcgrath nicol"}},
	{Canonical: "KordaMentha", Aliases: []string{"kordamentha", "korda mentha"}},
	{Canonical: "FTI Consulting", Aliases: []string{"fti consulting", "fti"}},

	// Investment banks and diversified financials. Macquarie before the
	// bank aliases it contains.
	{Canonical: "Macquarie", Aliases: []string{"macquarie group limited", "macquarie group", "macquarie bank", "macquarie capital", "macquarie securities", "macquarie"}},
	{Canonical: "Goldman Sachs", Aliases: []string{"goldman sachs australia", "goldman sachs"}},
	{Canonical: "UBS", Aliases: []string{"ubs securities australia", "ubs australia", "ubs"}},
	// The nominee custodian before the bank whose name its aliases contain,
	// or register entries like "JP Morgan Nominees Australia Pty Limited"
	// collapse into the bank.
	{Canonical: "J.P. Morgan Nominees", Aliases: []string{"j p morgan nominees", "jp morgan nominees", "j.p. morgan nominees"}},
	{Canonical: "J.P. Morgan", Aliases: []string{"j.p. morgan", "jp morgan", "jpmorgan chase", "jpmorgan"}},
	{Canonical: "Morgan Stanley", Aliases: []string{"morgan stanley australia", "morgan stanley"}},
	{Canonical: "Citi", Aliases: []string{"citigroup global markets", "citigroup", "citibank", "citi"}},
	{Canonical: "Barrenjoey", Aliases: []string{"barrenjoey capital partners", "barrenjoey"}},
	{Canonical: "Jarden", Aliases: []string{"jarden australia", "jarden"}},

	// Retail and mid-market brokers.
	{Canonical: "Canaccord Genuity", Aliases: []string{"canaccord genuity", "canaccord"}},
	{Canonical: "Bell Potter", Aliases: []string{"bell potter securities", "bell potter"}},
	{Canonical: "Morgans", Aliases: []string{"morgans financial", "morgans"}},
	{Canonical: "Euroz Hartleys", Aliases: []string{"euroz hartleys", "euroz"}},
	{Canonical: "Shaw and Partners", Aliases: []string{"shaw and partners", "shaw & partners"}},
	{Canonical: "Wilsons", Aliases: []string{"wilsons advisory", "wilsons"}},
	{Canonical: "Ord Minnett", Aliases: []string{"ord minnett"}},

	// Institutional investors and nominee holders.
	{Canonical: "Vanguard", Aliases: []string{"the vanguard group", "vanguard investments australia", "vanguard"}},
	{Canonical: "BlackRock", Aliases: []string{"blackrock investment management", "blackrock"}},
	{Canonical: "State Street", Aliases: []string{"state street global advisors", "state street"}},
	{Canonical: "Perpetual", Aliases: []string{"perpetual investment management", "perpetual"}},
	{Canonical: "Regal Funds Management", Aliases: []string{"regal funds management", "regal partners"}},
	{Canonical: "AustralianSuper", Aliases: []string{"australiansuper", "australian super"}},
	{Canonical: "HSBC Custody Nominees", Aliases: []string{"hsbc custody nominees"}},
	{Canonical: "Citicorp Nominees", Aliases: []string{"citicorp nominees"}},
	{Canonical: "National Nominees", Aliases: []string{"national nominees"}},
	{Canonical: "BNP Paribas Nominees", Aliases: []string{"bnp paribas noms", "bnp paribas nominees"}},

	// Major banks and lenders.
	{Canonical: "Commonwealth Bank", Aliases: []string{"commonwealth bank of australia", "commbank", "cba"}},
	{Canonical: "Westpac", Aliases: []string{"westpac banking corporation", "westpac"}},
	{Canonical: "NAB", Aliases: []string{"national australia bank", "nab"}},
	{Canonical: "ANZ", Aliases: []string{"australia and new zealand banking group", "anz banking group", "anz"}},

	// Law firms.
	{Canonical: "Herbert Smith Freehills", Aliases: []string{"herbert smith freehills", "freehills"}},
	{Canonical: "King & Wood Mallesons", Aliases: []string{"king & wood mallesons", "king and wood mallesons", "mallesons"}},
	{Canonical: "Gilbert + Tobin", Aliases: []string{"gilbert + tobin", "gilbert and tobin", "gilbert tobin"}},
	{Canonical: "Allens", Aliases: []string{"allens linklaters", "allens"}},
	{Canonical: "MinterEllison", Aliases: []string{"minterellison", "minter ellison"}},
	{Canonical: "Clayton Utz", Aliases: []string{"clayton utz"}},
	{Canonical: "Corrs Chambers Westgarth", Aliases: []string{"corrs chambers westgarth", "corrs"}},
	{Canonical: "Ashurst", Aliases: []string{"ashurst australia", "ashurst"}},

	// Registries and regulators.
	{Canonical: "Computershare", Aliases: []string{"computershare investor services", "computershare"}},
	{Canonical: "Link Market Services", Aliases: []string{"link market services", "link group"}},
	{Canonical: "Automic", Aliases: []string{"automic registry services", "automic group", "automic"}},
	{Canonical: "Boardroom", Aliases: []string{"boardroom pty", "boardroom limited"}},
	{Canonical: "ASIC", Aliases: []string{"australian securities and investments commission", "asic"}},
	{Canonical: "ASX", Aliases: []string{"australian securities exchange", "asx limited", "asx"}},
	{Canonical: "ACCC", Aliases: []string{"australian competition and consumer commission", "accc"}},
	{Canonical: "APRA", Aliases: []string{"australian prudential regulation authority", "apra"}},
	{Canonical: "ATO", Aliases: []string{"australian taxation office", "ato"}},
}
