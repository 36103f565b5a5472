package model

// Part is a marker interface implemented by all message parts. Concrete
// implementations capture user-visible text, provider-issued thinking, and
// tool call/result content in a strongly typed form.
type Part interface {
	isPart()
}

// ImageFormat identifies the on-wire format of an image part.
//
// Provider adapters may support only a subset of formats. Callers should
// normalize uploads to one of the supported formats before constructing an
// ImagePart.
type ImageFormat string

// DocumentFormat identifies the on-wire format (extension) of a document part.
//
// Provider adapters may support only a subset of formats. Callers should
// normalize uploads to one of the supported formats before constructing a
// DocumentPart.
type DocumentFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatWEBP ImageFormat = "webp"
)

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatCSV  DocumentFormat = "csv"
	DocumentFormatDOC  DocumentFormat = "doc"
	DocumentFormatDOCX DocumentFormat = "docx"
	DocumentFormatXLS  DocumentFormat = "xls"
	DocumentFormatXLSX DocumentFormat = "xlsx"
	DocumentFormatHTML DocumentFormat = "html"
	DocumentFormatTXT  DocumentFormat = "txt"
	DocumentFormatMD   DocumentFormat = "md"
)

// TextPart is a plain text content block in a message.
//
// Text is emitted as-is to the UI or consumer when the message is rendered.
type TextPart struct {
	Text string
}

// ImagePart carries image bytes attached to a user message.
//
// Image parts are intended for multimodal models. Provider adapters fail fast
// when images are used in unsupported roles or for unsupported model families.
type ImagePart struct {
	// Format identifies the encoding of Bytes (e.g., "png").
	Format ImageFormat

	// Bytes contains the raw image bytes for the declared format.
	Bytes []byte
}

// DocumentPart carries document content attached to a user message.
//
// Documents are intended for models that support document inputs and citation
// generation. Exactly one of Bytes, Text, Chunks, or URI must be provided.
type DocumentPart struct {
	// Name is a short neutral identifier for the document (for example, "spec").
	Name string

	// Format identifies the document format/extension (for example, "pdf", "txt", "md").
	Format DocumentFormat

	// Bytes carries the raw document bytes when the document is provided as an upload.
	Bytes []byte

	// Text carries the document content when the document is provided as a single text blob.
	Text string

	// Chunks carries the document content split into logical chunks when citations
	// should reference chunk indices rather than character spans.
	Chunks []string

	// URI locates the document externally when the document should not be
	// embedded in the request payload (for example, "s3://bucket/key.pdf").
	//
	// Provider adapters fail fast when URI schemes are not supported.
	URI string

	// Context is optional contextual information about how the document should be
	// interpreted by the model when generating citations.
	Context string

	// Cite requests provider-native citations when supported.
	Cite bool
}

// CitationsPart is a generated content block paired with citation metadata.
//
// Providers may emit this part instead of a TextPart when citation generation
// is enabled.
type CitationsPart struct {
	Text      string
	Citations []Citation
}

// Citation links generated content back to a specific location in a source document.
type Citation struct {
	Title         string
	Source        string
	Location      CitationLocation
	SourceContent []string
}

// CitationLocation identifies where cited content can be found within a document.
//
// Exactly one of DocumentChar, DocumentChunk, or DocumentPage should be set when present.
type CitationLocation struct {
	DocumentChar  *DocumentCharLocation
	DocumentChunk *DocumentChunkLocation
	DocumentPage  *DocumentPageLocation
}

// DocumentCharLocation identifies a character span within a document.
type DocumentCharLocation struct {
	DocumentIndex int
	Start         int
	End           int
}

// DocumentChunkLocation identifies a chunk range within a document.
type DocumentChunkLocation struct {
	DocumentIndex int
	Start         int
	End           int
}

// DocumentPageLocation identifies a page number within a document.
type DocumentPageLocation struct {
	DocumentIndex int
	Start         int
	End           int
}

// ThinkingPart represents provider-issued reasoning content.
//
// Providers may attach a signature or redacted payload; callers treat this
// as opaque metadata and surface it according to UI policy.
type ThinkingPart struct {
	// Text is the provider-visible reasoning text when available.
	Text string

	// Signature is the provider-issued signature for Text when present.
	Signature string

	// Redacted carries provider-issued reasoning content in redacted form
	// when plaintext Text is not available.
	Redacted []byte

	// Index is the position of this block in the reasoning sequence.
	Index int

	// Final reports whether this reasoning block is the last one for the
	// current turn.
	Final bool
}

// ToolUsePart declares a tool invocation by the assistant.
//
// The planner/runtime turns these declarations into concrete tool
// executions and correlates results via ToolResultPart.ToolUseID.
type ToolUsePart struct {
	ID    string
	Name  string
	Input any
}

// ToolResultPart carries a tool result provided by the user side.
//
// Tool results are attached to user messages so the model can read them in
// subsequent turns.
type ToolResultPart struct {
	ToolUseID string
	Content   any
	IsError   bool
}

// CacheCheckpointPart marks a cache boundary in a message. Provider adapters
// translate this to provider-specific caching directives (e.g., Bedrock
// cachePoint). Providers that do not support caching ignore this part. It is
// complementary to CacheOptions/CachePolicy: agents can combine explicit
// CacheCheckpointPart instances with policy-driven AfterSystem/AfterTools
// checkpoints to express complex caching layouts.
type CacheCheckpointPart struct{}

func (TextPart) isPart()            {}
func (ImagePart) isPart()           {}
func (DocumentPart) isPart()        {}
func (CitationsPart) isPart()       {}
func (ThinkingPart) isPart()        {}
func (ToolUsePart) isPart()         {}
func (ToolResultPart) isPart()      {}
func (CacheCheckpointPart) isPart() {}
