package policy

import "github.com/fhuszti/skillswap-media-ms/internal/model"

const (
	UserAvatar      = "user-avatar"
	CommunityImage  = "community-image"
	CommunityAvatar = "community-avatar"
	CommunityHeader = "community-header"
	PostImages      = "post-images"
	ChatAttachment  = "chat-attachment"
	AudioMessage    = "audio-message"
	Document        = "document"

	ProviderCloudinary  = "cloudinary"
	ProviderObjectStore = "objectstore"

	mb = 1 << 20
)

var imageMimes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var attachmentMimes = append(append([]string(nil), imageMimes...),
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"application/zip",
)

var audioMimes = []string{"audio/webm", "audio/mpeg", "audio/wav", "audio/ogg", "audio/mp4"}

var documentMimes = []string{"application/pdf", "text/markdown"}

func thumb(w, h int) model.TransformStep {
	return model.Resize(w, h, model.CropThumb, model.GravityAuto)
}

func limit(w, h int) model.TransformStep {
	return model.Resize(w, h, model.CropLimit, model.GravityCenter)
}

// Defaults returns the built-in profiles. Image profiles use imageProvider;
// audio and document profiles exist only when the object store is configured.
func Defaults(imageProvider string, objectStore bool) []model.UploadProfile {
	profiles := []model.UploadProfile{
		{
			Name:         UserAvatar,
			AllowedMime:  imageMimes,
			MaxBytes:     5 * mb,
			MaxCount:     1,
			Fields:       map[string]int{"avatar": 1},
			Bucket:       "skillswap-avatars",
			Provider:     imageProvider,
			ResourceType: "image",
			Transform: model.Recipe{
				thumb(300, 300),
				model.QualityAuto(),
				model.FormatAuto(),
				model.Eager(
					model.Variant("thumbnail", thumb(150, 150)),
					model.Variant("small", thumb(50, 50)),
				),
			},
			Collection:      "users",
			Mode:            model.CommitReplace,
			OwnerPath:       "avatar",
			VariantPaths:    map[string]string{"thumbnail": "avatarThumbnail", "small": "avatarSmall"},
			AssetPath:       "avatarAsset",
			ActivityType:    "avatar_update",
			ActivityMessage: "Updated profile picture",
		},
		{
			Name:            CommunityImage,
			AllowedMime:     imageMimes,
			MaxBytes:        5 * mb,
			MaxCount:        1,
			Fields:          map[string]int{"image": 1},
			Bucket:          "skillswap-communities",
			Provider:        imageProvider,
			ResourceType:    "image",
			Transform:       model.Recipe{limit(800, 600), model.QualityAuto(), model.FormatAuto()},
			Collection:      "communities",
			Mode:            model.CommitReplace,
			OwnerPath:       "image",
			AssetPath:       "imageAsset",
			ActivityType:    "community_image_update",
			ActivityMessage: "Updated community image",
		},
		{
			Name:            CommunityAvatar,
			AllowedMime:     imageMimes,
			MaxBytes:        5 * mb,
			MaxCount:        1,
			Fields:          map[string]int{"avatar": 1},
			Bucket:          "skillswap-communities",
			Provider:        imageProvider,
			ResourceType:    "image",
			Transform:       model.Recipe{thumb(300, 300), model.QualityAuto(), model.FormatAuto()},
			Collection:      "communities",
			Mode:            model.CommitReplace,
			OwnerPath:       "avatar",
			AssetPath:       "avatarAsset",
			ActivityType:    "community_avatar_update",
			ActivityMessage: "Updated community avatar",
		},
		{
			Name:            CommunityHeader,
			AllowedMime:     imageMimes,
			MaxBytes:        5 * mb,
			MaxCount:        1,
			Fields:          map[string]int{"headerImage": 1},
			Bucket:          "skillswap-communities",
			Provider:        imageProvider,
			ResourceType:    "image",
			Transform:       model.Recipe{limit(1500, 500), model.QualityAuto(), model.FormatAuto()},
			Collection:      "communities",
			Mode:            model.CommitReplace,
			OwnerPath:       "headerImage",
			AssetPath:       "headerImageAsset",
			ActivityType:    "community_header_update",
			ActivityMessage: "Updated community header image",
		},
		{
			Name:            PostImages,
			AllowedMime:     imageMimes,
			MaxBytes:        5 * mb,
			MaxCount:        10,
			Fields:          map[string]int{"images": 10},
			Bucket:          "skillswap-posts",
			Provider:        imageProvider,
			ResourceType:    "image",
			Transform:       model.Recipe{limit(1200, 1200), model.QualityAuto(), model.FormatAuto()},
			Collection:      "posts",
			Mode:            model.CommitCreate,
			OwnerPath:       "images",
			AssetPath:       "imageAssets",
			ActivityType:    "post_created",
			ActivityMessage: "Created a new post",
			AuthorField:     "author",
			FormFields:      map[string]string{"content": "max=5000"},
		},
		{
			Name:             ChatAttachment,
			AllowedMime:      attachmentMimes,
			MaxBytes:         10 * mb,
			MaxCount:         1,
			Fields:           map[string]int{"file": 1},
			Bucket:           "skillswap-chat-files",
			Provider:         imageProvider,
			ResourceType:     "auto",
			Collection:       "messages",
			Mode:             model.CommitCreate,
			OwnerPath:        "fileUrl",
			AssetPath:        "attachment",
			ActivityType:     "chat_file_sent",
			ActivityMessage:  "Sent a file",
			AuthorField:      "sender",
			ParentField:      "chat",
			ParentCollection: "chats",
			FormFields:       map[string]string{"content": "max=2000"},
		},
	}

	if !objectStore {
		return profiles
	}

	return append(profiles,
		model.UploadProfile{
			Name:             AudioMessage,
			AllowedMime:      audioMimes,
			MaxBytes:         10 * mb,
			MaxCount:         1,
			Fields:           map[string]int{"audio": 1},
			Bucket:           "skillswap-audio",
			Provider:         ProviderObjectStore,
			Collection:       "messages",
			Mode:             model.CommitCreate,
			OwnerPath:        "audioUrl",
			AssetPath:        "audio",
			ActivityType:     "chat_audio_sent",
			ActivityMessage:  "Sent a voice message",
			AuthorField:      "sender",
			ParentField:      "chat",
			ParentCollection: "chats",
		},
		model.UploadProfile{
			Name:            Document,
			AllowedMime:     documentMimes,
			MaxBytes:        10 * mb,
			MaxCount:        1,
			Fields:          map[string]int{"document": 1},
			Bucket:          "skillswap-documents",
			Provider:        ProviderObjectStore,
			Transform:       model.Recipe{model.Optimise()},
			Collection:      "documents",
			Mode:            model.CommitCreate,
			OwnerPath:       "url",
			AssetPath:       "asset",
			ActivityType:    "document_upload",
			ActivityMessage: "Uploaded a document",
			AuthorField:     "owner",
			FormFields:      map[string]string{"title": "max=200"},
		},
	)
}
