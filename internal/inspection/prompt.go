package inspection

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMIMEType is declared for images whose type cannot be sniffed
const DefaultMIMEType = "image/jpeg"

// Prompt asks the model for an object name, a defect verdict and a short
// explanation, returned as a JSON object with exactly those three keys.
const Prompt = `Analyze these images with high level of detail. For each image:

Identify what the object is.
Determine if it is defective even if it is small or subtle imperfections or in good condition.
Provide a brief explanation of its condition.

Use the following format for your response:

{"object": "[Name of the object]", "defective": "[Yes/No]", "explanation": "[Brief description of the condition]"}`

// DetectMIMEType sniffs the image type from its bytes, falling back to DefaultMIMEType
func DetectMIMEType(image []byte) string {
	mtype := mimetype.Detect(image)
	if strings.HasPrefix(mtype.String(), "image/") {
		return mtype.String()
	}
	return DefaultMIMEType
}

// DataURI encodes image as a base64 data URI
func DataURI(image []byte) string {
	return "data:" + DetectMIMEType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}
