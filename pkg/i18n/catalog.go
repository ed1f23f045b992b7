package i18n

var catalog = map[string]map[string]string{
	Japanese: {
		"app.title":                      "農業日誌",
		"nav.crops":                      "作物",
		"nav.fields":                     "圃場",
		"nav.soil_diagnostics":           "土壌診断",
		"nav.work_histories":             "作業履歴",
		"nav.pesticides":                 "農薬登録情報",
		"nav.login":                      "ログイン",
		"nav.logout":                     "ログアウト",
		"nav.register":                   "新規登録",
		"nav.terms":                      "利用規約",
		"nav.privacy":                    "プライバシーポリシー",
		"action.new":                     "新規作成",
		"action.edit":                    "編集",
		"action.delete":                  "削除",
		"action.save":                    "保存",
		"action.search":                  "検索",
		"action.export":                  "Excel出力",
		"action.upload":                  "アップロード",
		"action.clear_all":               "全件削除",
		"confirm.delete":                 "削除してもよろしいですか？",
		"list.empty":                     "データがありません",
		"list.total":                     "全%d件",
		"pager.previous":                 "前へ",
		"pager.next":                     "次へ",
		"auth.username":                  "ユーザー名",
		"auth.email":                     "メールアドレス",
		"auth.password":                  "パスワード",
		"auth.password_confirm":          "パスワード（確認）",
		"auth.agree_terms":               "利用規約に同意する",
		"auth.forgot":                    "パスワードをお忘れの方",
		"auth.forgot_title":              "パスワードリセット",
		"auth.reset_title":               "新しいパスワードの設定",
		"auth.send":                      "送信",
		"crop.name":                      "作物名",
		"crop.introduced_date":           "導入日",
		"crop.discontinued_date":         "終了日",
		"crop.company":                   "会社",
		"field.name":                     "圃場名",
		"field.north_east_latitude":      "北東緯度",
		"field.north_east_longitude":     "北東経度",
		"field.south_west_latitude":      "南西緯度",
		"field.south_west_longitude":     "南西経度",
		"soil.diagnostic_date":           "診断日",
		"soil.field":                     "圃場",
		"soil.cec":                       "CEC",
		"soil.ec":                        "EC",
		"soil.ph_h2o":                    "pH(H2O)",
		"soil.ph_kcl":                    "pH(KCl)",
		"soil.nh4_n":                     "アンモニア態窒素",
		"soil.k2o":                       "カリ",
		"soil.phosphorus_absorption_coefficient": "リン酸吸収係数",
		"soil.available_nitrogen":        "可給態窒素",
		"soil.p2o5":                      "有効態リン酸",
		"soil.cao":                       "石灰",
		"soil.no3_n":                     "硝酸態窒素",
		"soil.humus":                     "腐植",
		"soil.mgo":                       "苦土",
		"work.date":                      "日付",
		"work.start_time":                "開始時刻",
		"work.end_time":                  "終了時刻",
		"work.field":                     "圃場",
		"work.crop":                      "作物",
		"work.content":                   "作業内容",
		"pesticide.registration_number":  "登録番号",
		"pesticide.usage":                "用途",
		"pesticide.pesticide_type":       "農薬の種類",
		"pesticide.pesticide_name":       "農薬の名称",
		"pesticide.abbreviation":         "略称",
		"pesticide.crop_name":            "作物名",
		"pesticide.application_location": "適用場所",
		"pesticide.target_pest_disease":  "適用病害虫雑草名",
		"pesticide.purpose":              "使用目的",
		"pesticide.dilution_amount":      "希釈倍数使用量",
		"pesticide.upload_title":         "農薬登録情報のアップロード",
		"pesticide.upload_hint":          "農林水産省の農薬登録情報ZIPファイル（Shift_JIS CSV）を選択してください",
		"title.new":                      "%sの登録",
		"title.edit":                     "%sの編集",
		"pesticide.cleared_confirm":      "農薬登録情報を全件削除してもよろしいですか？",
		"error.title":                    "エラー",
		"error.back":                     "トップへ戻る",
	},
	English: {
		"app.title":                      "Agriculture Diary",
		"nav.crops":                      "Crops",
		"nav.fields":                     "Fields",
		"nav.soil_diagnostics":           "Soil diagnostics",
		"nav.work_histories":             "Work history",
		"nav.pesticides":                 "Pesticide registrations",
		"nav.login":                      "Log in",
		"nav.logout":                     "Log out",
		"nav.register":                   "Sign up",
		"nav.terms":                      "Terms of service",
		"nav.privacy":                    "Privacy policy",
		"action.new":                     "New",
		"action.edit":                    "Edit",
		"action.delete":                  "Delete",
		"action.save":                    "Save",
		"action.search":                  "Search",
		"action.export":                  "Export to Excel",
		"action.upload":                  "Upload",
		"action.clear_all":               "Delete all",
		"confirm.delete":                 "Are you sure you want to delete this?",
		"list.empty":                     "No records",
		"list.total":                     "%d records",
		"pager.previous":                 "Previous",
		"pager.next":                     "Next",
		"auth.username":                  "Username",
		"auth.email":                     "Email",
		"auth.password":                  "Password",
		"auth.password_confirm":          "Confirm password",
		"auth.agree_terms":               "I agree to the terms of service",
		"auth.forgot":                    "Forgot your password?",
		"auth.forgot_title":              "Reset password",
		"auth.reset_title":               "Choose a new password",
		"auth.send":                      "Send",
		"crop.name":                      "Crop",
		"crop.introduced_date":           "Introduced",
		"crop.discontinued_date":         "Discontinued",
		"crop.company":                   "Company",
		"field.name":                     "Field",
		"field.north_east_latitude":      "North-east latitude",
		"field.north_east_longitude":     "North-east longitude",
		"field.south_west_latitude":      "South-west latitude",
		"field.south_west_longitude":     "South-west longitude",
		"soil.diagnostic_date":           "Diagnosed on",
		"soil.field":                     "Field",
		"soil.cec":                       "CEC",
		"soil.ec":                        "EC",
		"soil.ph_h2o":                    "pH (H2O)",
		"soil.ph_kcl":                    "pH (KCl)",
		"soil.nh4_n":                     "NH4-N",
		"soil.k2o":                       "K2O",
		"soil.phosphorus_absorption_coefficient": "Phosphate absorption",
		"soil.available_nitrogen":        "Available N",
		"soil.p2o5":                      "P2O5",
		"soil.cao":                       "CaO",
		"soil.no3_n":                     "NO3-N",
		"soil.humus":                     "Humus",
		"soil.mgo":                       "MgO",
		"work.date":                      "Date",
		"work.start_time":                "Start",
		"work.end_time":                  "End",
		"work.field":                     "Field",
		"work.crop":                      "Crop",
		"work.content":                   "Work done",
		"pesticide.registration_number":  "Registration no.",
		"pesticide.usage":                "Usage",
		"pesticide.pesticide_type":       "Type",
		"pesticide.pesticide_name":       "Name",
		"pesticide.abbreviation":         "Abbreviation",
		"pesticide.crop_name":            "Crop",
		"pesticide.application_location": "Applied to",
		"pesticide.target_pest_disease":  "Target pest / disease",
		"pesticide.purpose":              "Purpose",
		"pesticide.dilution_amount":      "Dilution / amount",
		"pesticide.upload_title":         "Upload pesticide registrations",
		"pesticide.upload_hint":          "Select the registry ZIP archive (Shift_JIS CSV files)",
		"title.new":                      "New %s",
		"title.edit":                     "Edit %s",
		"pesticide.cleared_confirm":      "Delete every pesticide registration?",
		"error.title":                    "Error",
		"error.back":                     "Back to top",
	},
}
