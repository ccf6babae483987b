package services

import "fmt"

const fallbackTemplate = "I apologize, but I'm experiencing technical difficulties right now. However, I can still help you with career guidance! \n\n" +
	"Based on your message \"%s\", here are some general career counseling tips:\n\n" +
	"1. **Self-Assessment**: Take time to evaluate your skills, interests, and values\n" +
	"2. **Research**: Explore different career paths and industries that align with your goals\n" +
	"3. **Networking**: Connect with professionals in your field of interest\n" +
	"4. **Skill Development**: Identify and work on skills needed for your target role\n" +
	"5. **Professional Development**: Consider certifications, courses, or additional training\n\n" +
	"Please try sending your message again, or feel free to ask more specific questions about your career goals."

// FallbackReply is stored as the assistant message whenever the model provider fails.
func FallbackReply(content string) string {
	return fmt.Sprintf(fallbackTemplate, content)
}
