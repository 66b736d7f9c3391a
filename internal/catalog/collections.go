package catalog

// Collection identifiers for the subscription catalog. Each id names a
// curated grouping the crawler enumerates every run.
const (
	CollectionConsole                   = "f6f1f99f-9b49-4ccd-b3bf-4d9767a77f5e"
	CollectionCore                      = "f13cf6b4-57e6-4459-89df-6aec18cf0538"
	CollectionStandard                  = "79a31af7-23d8-4591-a3cb-e2d0509d1c72"
	CollectionPC                        = "609d944c-d395-4c0a-9ea4-e9f39b52c1ad"
	CollectionPCSecondary               = "a884932a-f02b-40c8-a903-a008c23b1df1"
	CollectionConsoleSecondary          = "29a81209-df6f-41fd-a528-2ae6b91f719c"
	CollectionConsoleDayOneReleases     = "9bc2c286-6ac2-4ebd-9a07-cee8e3711b9f"
	CollectionPCDayOneReleases          = "392f0b88-9e06-4755-a3b1-fd215e3be0b2"
	CollectionConsoleMostPopular        = "eab7757c-ff70-45af-bfa6-79d3cfb2bf81"
	CollectionPCMostPopular             = "a1ea21be-b4cd-4c0d-a494-06ffb14a668b"
	CollectionCoreMostPopular           = "6f909d5f-9b4c-4e0c-9c47-48e156cbfcf4"
	CollectionStandardMostPopular       = "7d8e8d56-c2cc-4420-b1a9-979d4ba643b3"
	CollectionCloudMostPopular          = "e7afa3b9-c26b-4a34-9c9a-6cb07d9b65d8"
	CollectionConsoleRecentlyAdded      = "4a9f7c92-02bf-4c88-94e7-7b9a9bf39b7f"
	CollectionPCRecentlyAdded           = "163b6b5a-7744-4a26-b897-0f3b63b8b66b"
	CollectionStandardRecentlyAdded     = "8aaf5e33-c19e-4e25-ae22-0d8b3b9a1b5e"
	CollectionConsoleComingTo           = "095bda36-f5cd-43f2-9ee1-0a72f371fb96"
	CollectionPCComingTo                = "4165f752-d702-49c8-886b-fb57936f6bae"
	CollectionStandardComingTo          = "01b2a1a6-2a1d-4acd-b0a1-3a86cbbd1f94"
	CollectionConsoleLeavingSoon        = "393f05bf-e596-4ef6-9487-6d4fa0eab987"
	CollectionPCLeavingSoon             = "fdc2f2d5-c343-45ef-9ad9-b79a5e87d2da"
	CollectionStandardLeavingSoon       = "62b238b4-0ffd-4bcc-88f7-f6eab4e3e20b"
	CollectionUbisoftConsole            = "9ae2b548-5164-44d7-b9c3-69a9ac83f7e9"
	CollectionUbisoftPC                 = "01f9cda0-7a80-461a-b1e2-9a58e9e9b132"
	CollectionEAPlayConsole             = "b8900d09-a491-44cc-916e-32b5acae621b"
	CollectionEAPlayPC                  = "4e9e5ff9-34a6-4f28-a9ef-7be8ae66d9b2"
	CollectionEAPlayTrialConsole        = "6b793e53-7f8e-4eb3-b2bf-c69e851d75d5"
	CollectionEAPlayTrialPC             = "95b0b441-6d50-4ae6-9f4f-5b7e2c4d8b37"
)

// Collections lists every catalog grouping enumerated by the crawl.
func Collections() []string {
	return []string{
		CollectionConsole, CollectionCore,
		CollectionStandard, CollectionPC,
		CollectionPCSecondary, CollectionConsoleSecondary,
		CollectionConsoleDayOneReleases, CollectionPCDayOneReleases,
		CollectionConsoleMostPopular, CollectionPCMostPopular,
		CollectionCoreMostPopular, CollectionStandardMostPopular,
		CollectionCloudMostPopular,
		CollectionConsoleRecentlyAdded, CollectionPCRecentlyAdded,
		CollectionStandardRecentlyAdded,
		CollectionConsoleComingTo, CollectionPCComingTo,
		CollectionStandardComingTo,
		CollectionConsoleLeavingSoon, CollectionPCLeavingSoon,
		CollectionStandardLeavingSoon,
		CollectionUbisoftConsole, CollectionUbisoftPC,
		CollectionEAPlayConsole, CollectionEAPlayPC,
		CollectionEAPlayTrialConsole, CollectionEAPlayTrialPC,
	}
}
