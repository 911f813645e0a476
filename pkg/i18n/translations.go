package i18n

// translations maps notification key → language code → format string.
// Format verbs follow fmt.Sprintf conventions.
//
// Supported languages: en (English), ru (Russian), tr (Turkish), tk (Turkmen).
var translations = map[string]map[string]string{

	// ─── Rating Hidden (rater-facing) ────────────────────────────────────────
	"notification.rating.hidden.title": {
		"en": "Your Rating Was Hidden",
		"ru": "Ваша оценка скрыта",
		"tr": "Değerlendirmeniz Gizlendi",
		"tk": "Bahaňyz Gizlendi",
	},
	"notification.rating.hidden.body": {
		"en": "A rating you left was hidden by our moderation team and no longer appears publicly.",
		"ru": "Оставленная вами оценка была скрыта модераторами и больше не отображается публично.",
		"tr": "Bıraktığınız bir değerlendirme moderasyon ekibimiz tarafından gizlendi ve artık herkese açık görünmüyor.",
		"tk": "Siziň goýan bahaňyz moderatorlar tarapyndan gizlendi we indi açyk görkezilmeýär.",
	},

	// ─── Rating Deleted (rater-facing) ───────────────────────────────────────
	"notification.rating.deleted.title": {
		"en": "Your Rating Was Removed",
		"ru": "Ваша оценка удалена",
		"tr": "Değerlendirmeniz Kaldırıldı",
		"tk": "Bahaňyz Aýryldy",
	},
	"notification.rating.deleted.body": {
		"en": "A rating you left was removed for violating our community guidelines.",
		"ru": "Оставленная вами оценка была удалена за нарушение правил сообщества.",
		"tr": "Bıraktığınız bir değerlendirme topluluk kurallarımızı ihlal ettiği için kaldırıldı.",
		"tk": "Siziň goýan bahaňyz jemgyýet düzgünlerini bozandygy üçin aýryldy.",
	},

	// ─── Verification Approved ───────────────────────────────────────────────
	"notification.verification.approved.title": {
		"en": "Verification Approved",
		"ru": "Верификация подтверждена",
		"tr": "Doğrulama Onaylandı",
		"tk": "Tassyklama Kabul Edildi",
	},
	"notification.verification.approved.body": {
		"en": "Your identity documents have been approved. You're all set!",
		"ru": "Ваши документы подтверждены. Всё готово!",
		"tr": "Kimlik belgeleriniz onaylandı. Her şey hazır!",
		"tk": "Şahsyýet resminamalaryňyz tassyklandy. Ähli zat taýýar!",
	},
	"notification.verification.approved.sms": {
		"en": "Your documents were approved. You now have full access to your account.",
		"ru": "Ваши документы подтверждены. Вам доступны все функции аккаунта.",
		"tr": "Belgeleriniz onaylandı. Artık hesabınıza tam erişiminiz var.",
		"tk": "Resminamalaryňyz tassyklandy. Indi hasabyňyza doly girip bilersiňiz.",
	},

	// ─── Verification Rejected ───────────────────────────────────────────────
	"notification.verification.rejected.title": {
		"en": "Verification Rejected",
		"ru": "Верификация отклонена",
		"tr": "Doğrulama Reddedildi",
		"tk": "Tassyklama Ret Edildi",
	},
	// %s = rejection reason
	"notification.verification.rejected.body": {
		"en": "Your documents could not be verified: %s. Please resubmit.",
		"ru": "Ваши документы не прошли проверку: %s. Пожалуйста, отправьте их снова.",
		"tr": "Belgeleriniz doğrulanamadı: %s. Lütfen yeniden gönderin.",
		"tk": "Resminamalaryňyz tassyklanyp bilinmedi: %s. Täzeden iberiň.",
	},
	// %s = rejection reason
	"notification.verification.rejected.sms": {
		"en": "Document verification failed: %s. Resubmit in the app.",
		"ru": "Проверка документов не пройдена: %s. Отправьте их снова в приложении.",
		"tr": "Belge doğrulama başarısız: %s. Uygulamadan yeniden gönderin.",
		"tk": "Resminama barlagy şowsuz boldy: %s. Programmada täzeden iberiň.",
	},
}
