// Package analysis defines the analysis result produced by the three-phase
// pipeline, as stored and as rendered.
package analysis

// SystemVersion is stamped into every result's metadata
const SystemVersion = "1.0"

// NotSpecified fills metadata fields nobody provided
const NotSpecified = "Non specificato"

// Result is the canonical analysis record
type Result struct {
	Metadata   Metadata `json:"metadata"`
	Contextual Phase1   `json:"fase_1_contestuale"`
	Technical  Phase2   `json:"fase_2_tecnica"`
	Commercial Phase3   `json:"fase_3_commerciale"`
	Email      *Email   `json:"email_generata,omitempty"`
}

type Metadata struct {
	AnalysisDate  string `json:"data_analisi"`
	Subject       string `json:"materia"`
	DegreeCourse  string `json:"corso_laurea"`
	University    string `json:"ateneo"`
	Professor     string `json:"docente"`
	SystemVersion string `json:"versione_sistema"`
}

// Phase 1: contextual profile

type Phase1 struct {
	Philosophy     TeachingPhilosophy `json:"filosofia_didattica"`
	Priorities     PedagogicalFocus   `json:"priorita_pedagogiche"`
	Students       TargetStudents     `json:"target_studenti"`
	Institution    Institution        `json:"contesto_istituzionale"`
	ProfileSummary string             `json:"sintesi_profilo"`
}

type TeachingPhilosophy struct {
	MainApproach        string     `json:"approccio_principale"`
	TheoryPracticeMix   string     `json:"bilanciamento_teoria_pratica"`
	Rigor               string     `json:"livello_rigore"`
	Accessibility       string     `json:"livello_accessibilita"`
	ApplicationEmphasis string     `json:"enfasi_applicazioni"`
	Interdisciplinarity string     `json:"interdisciplinarita"`
	SchoolOfThought     string     `json:"scuola_pensiero,omitempty"`
	MicroSequence       string     `json:"sequenza_micro,omitempty"`
	MacroSequence       string     `json:"sequenza_macro,omitempty"`
	GrowthApproach      string     `json:"approccio_crescita,omitempty"`
	Confidence          FlexNumber `json:"confidence"`
}

type PedagogicalFocus struct {
	DepthVsBreadth string      `json:"profondita_vs_ampiezza"`
	Sequence       string      `json:"sequenza_didattica"`
	Methods        FlexStrings `json:"metodologie"`
	Assessment     Assessment  `json:"valutazione"`
	Confidence     FlexNumber  `json:"confidence"`
}

type Assessment struct {
	Modes        FlexStrings `json:"modalita"`
	MidtermTests bool        `json:"prove_in_itinere"`
}

type TargetStudents struct {
	DegreeCourse       string      `json:"corso_di_laurea"`
	Curriculum         string      `json:"curriculum"`
	Year               FlexString  `json:"anno"`
	ExpectedBackground FlexStrings `json:"background_atteso"`
	LearningGoals      string      `json:"obiettivi_formativi"`
	Confidence         FlexNumber  `json:"confidence"`
}

type Institution struct {
	University   string      `json:"ateneo"`
	Department   string      `json:"dipartimento"`
	Orientation  string      `json:"orientamento"`
	Stakeholders FlexStrings `json:"stakeholder"`
	Confidence   FlexNumber  `json:"confidence"`
}

// Phase 2: technical coverage

type Phase2 struct {
	Modules          []ModuleCoverage `json:"copertura_moduli"`
	TotalCoverage    FlexNumber       `json:"copertura_totale"`
	WellCovered      FlexStrings      `json:"moduli_ben_coperti"`
	PartiallyCovered FlexStrings      `json:"moduli_parzialmente_coperti"`
	Omitted          FlexStrings      `json:"moduli_omessi"`
	DepthBreadth     DepthBreadth     `json:"profondita_ampiezza"`
	Organization     Organization     `json:"sequenza_organizzazione"`
	AdoptedManual    *AdoptedManual   `json:"manuale_adottato"`
	AlternativeUsed  []AdoptedManual  `json:"manuali_alternativi,omitempty"`
	TechnicalSummary string           `json:"sintesi_tecnica"`
}

type ModuleCoverage struct {
	ModuleID      FlexString  `json:"modulo_id"`
	ModuleName    string      `json:"modulo_nome"`
	CoveragePct   FlexNumber  `json:"copertura_percentuale"`
	CoveredTopics FlexStrings `json:"argomenti_coperti"`
	OmittedTopics FlexStrings `json:"argomenti_omessi"`
	ExtraTopics   FlexStrings `json:"argomenti_extra"`
	Depth         string      `json:"livello_profondita"`
	Notes         string      `json:"note"`
}

type DepthBreadth struct {
	Overall         string       `json:"livello_generale"`
	Distribution    Distribution `json:"distribuzione"`
	TheoryVsApplied string       `json:"bilanciamento_teoria_applicazioni"`
	AdvancedTopics  FlexStrings  `json:"argomenti_avanzati"`
	Notes           string       `json:"note"`
}

type Distribution struct {
	Introductory FlexNumber `json:"introduttivo"`
	Intermediate FlexNumber `json:"intermedio"`
	Advanced     FlexNumber `json:"avanzato"`
}

type Organization struct {
	Approach         string `json:"approccio"`
	LogicalOrder     string `json:"ordine_logico"`
	PrerequisitesMet bool   `json:"prerequisiti_rispettati"`
	TopicIntegration string `json:"integrazione_argomenti"`
	Notes            string `json:"note"`
}

type AdoptedManual struct {
	Title             string      `json:"titolo"`
	Author            string      `json:"autore"`
	Publisher         string      `json:"editore"`
	Edition           FlexString  `json:"edizione"`
	Year              FlexString  `json:"anno"`
	ProgramAlignment  FlexNumber  `json:"allineamento_programma"`
	ChaptersUsed      FlexStrings `json:"capitoli_utilizzati"`
	ChaptersUnused    FlexStrings `json:"capitoli_non_utilizzati"`
	TopicsNotInManual FlexStrings `json:"argomenti_programma_non_in_manuale"`
	Notes             string      `json:"note"`
}

// Phase 3: commercial strategy

type Phase3 struct {
	Bibliography      *BibliographyAnalysis `json:"analisi_bibliografia,omitempty"`
	KeyInsight        string                `json:"insight_principale"`
	AdoptedEvaluation *ManualEvaluation     `json:"valutazione_manuale_adottato"`
	Gaps              []Gap                 `json:"gap_identificati"`
	Opportunity       Opportunity           `json:"opportunita_zanichelli"`
	SalesArguments    []SalesArgument       `json:"argomentazioni_vendita"`
	Strategy          Strategy              `json:"strategia_approccio"`
	PostIt            string                `json:"post_it"`
}

type BibliographyAnalysis struct {
	Primary            *BibliographyEntry  `json:"manuale_principale"`
	Alternatives       []BibliographyEntry `json:"manuali_alternativi"`
	PublisherPosition  string              `json:"posizione_zanichelli"`
	CompetitiveSummary string              `json:"sintesi_competitiva"`
}

type BibliographyEntry struct {
	Title            string     `json:"titolo"`
	Author           string     `json:"autore"`
	Publisher        string     `json:"editore"`
	Type             string     `json:"tipo"`
	Assessment       string     `json:"valutazione,omitempty"`
	Comparison       string     `json:"confronto,omitempty"`
	ProgramAlignment FlexNumber `json:"allineamento_programma,omitempty"`
}

type ManualEvaluation struct {
	Strengths  FlexStrings `json:"punti_forza"`
	Weaknesses FlexStrings `json:"punti_debolezza"`
	Gaps       FlexStrings `json:"gap_rispetto_programma"`
}

// Gap types as the model reports them
const (
	GapMissingContent    = "contenuto_mancante"
	GapInsufficientDepth = "profondita_insufficiente"
	GapDifferentApproach = "approccio_diverso"
	GapMissingResources  = "risorse_carenti"
)

type Gap struct {
	Type             string     `json:"tipo"`
	Description      string     `json:"descrizione"`
	Severity         string     `json:"gravita"`
	ModuleRef        FlexString `json:"modulo_riferimento,omitempty"`
	CommercialImpact string     `json:"impatto_commerciale"`
}

type Opportunity struct {
	RecommendedManual *RecommendedManual `json:"manuale_consigliato"`
	Strengths         []CompetitiveEdge  `json:"punti_forza_vs_competitor"`
	PedagogicalFitPct FlexNumber         `json:"allineamento_profilo_pedagogico"`
}

type RecommendedManual struct {
	ID     FlexString `json:"id"`
	Title  string     `json:"titolo"`
	Author string     `json:"autore"`
}

type CompetitiveEdge struct {
	Area        string `json:"area"`
	Description string `json:"descrizione"`
	Relevance   string `json:"rilevanza_per_programma"`
}

type SalesArgument struct {
	Order   FlexNumber `json:"ordine"`
	Message string     `json:"messaggio"`
	Support string     `json:"supporto"`
	Impact  string     `json:"impatto"`
}

type Strategy struct {
	Step1       StrategyStep `json:"fase_1"`
	Step2       StrategyStep `json:"fase_2"`
	Step3       StrategyStep `json:"fase_3"`
	WatchPoints FlexStrings  `json:"punti_attenzione"`
}

type StrategyStep struct {
	Action    string      `json:"azione"`
	Content   string      `json:"contenuto"`
	Materials FlexStrings `json:"materiali"`
	Goal      string      `json:"obiettivo"`
}

// Steps returns the three strategy steps in order
func (s Strategy) Steps() []StrategyStep {
	return []StrategyStep{s.Step1, s.Step2, s.Step3}
}

// IsZero reports whether the step carries no text at all
func (s StrategyStep) IsZero() bool {
	return s.Action == "" && s.Content == "" && s.Goal == "" && len(s.Materials) == 0
}

// Email is the follow-up email drafted from an analysis
type Email struct {
	Subject       string      `json:"oggetto"`
	Body          string      `json:"corpo"`
	PrimaryGap    string      `json:"gap_primario"`
	SecondaryGaps FlexStrings `json:"gap_secondari"`
	PromoterNotes string      `json:"note_per_promotore"`
}
