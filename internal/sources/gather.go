package sources

import (
	"strings"

	"github.com/varys-hq/varys/internal/models"
)

// ExtractMentions turns scraped posts into raw mentions: the post text
// when it mentions the company (case-insensitive substring), plus each
// comment that mentions it. Posts kept only for their comments do not
// become mentions themselves.
func ExtractMentions(posts []models.ScrapedPost, company string) []models.RawMention {
	companyLower := strings.ToLower(company)
	var mentions []models.RawMention

	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Review), companyLower) {
			mentions = append(mentions, models.RawMention{
				Source: post.Source,
				Text:   post.Review,
				Type:   "post",
			})
		}

		for _, comment := range post.Comments {
			if strings.Contains(strings.ToLower(comment), companyLower) {
				mentions = append(mentions, models.RawMention{
					Source: post.Source,
					Text:   comment,
					Type:   "comment",
				})
			}
		}
	}

	return mentions
}
