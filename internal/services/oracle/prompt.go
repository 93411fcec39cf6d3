package oracle

import (
	"fmt"

	"github.com/ternarybob/buzzmon/internal/models"
)

// systemPrompt frames the model as a Vietnamese social-listening analyst and
// pins the output contract to a single JSON object.
const systemPrompt = `Bạn là chuyên gia phân tích truyền thông mạng xã hội tiếng Việt. ` +
	`Nhiệm vụ của bạn là đánh giá nội dung tiêu cực có nhắm vào một chủ đề cụ thể hay không. ` +
	`Luôn trả lời bằng đúng một đối tượng JSON, không thêm văn bản nào khác.`

// buildPrompt renders the analysis request for one item. The model must
// answer whether the text mentions the topic, whether it attacks the topic
// directly, and which crisis keywords (short phrases, at most 3 words each)
// support that judgment.
func buildPrompt(item models.ContentItem) string {
	return fmt.Sprintf(`Phân tích nội dung mạng xã hội sau đây về chủ đề "%s".

Tiêu đề: %s
Nội dung: %s
Mô tả: %s
Nguồn: %s

Trả lời các câu hỏi sau:
1. Nội dung có nhắc đến chủ đề "%s" không? (contains_topic)
2. Nội dung tiêu cực có nhắm trực tiếp vào chủ đề "%s" không? (targeting_topic)
3. Nêu lý do ngắn gọn bằng tiếng Việt. (reason)
4. Liệt kê các từ khóa khủng hoảng trong nội dung, mỗi từ khóa tối đa 3 từ. Nếu không có, trả về danh sách rỗng. (crisis_keywords)

Chỉ trả lời bằng JSON theo mẫu:
{"contains_topic": true/false, "targeting_topic": true/false, "reason": "...", "crisis_keywords": ["..."]}`,
		item.TopicName,
		item.Title,
		item.Content,
		item.Description,
		item.SiteName,
		item.TopicName,
		item.TopicName,
	)
}
